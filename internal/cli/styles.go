package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rentdesk/rentdesk/internal/templates"
)

const (
	colorRed     = "1"
	colorGreen   = "2"
	colorYellow  = "3"
	colorBlue    = "4"
	colorMagenta = "5"
	colorCyan    = "6"
	colorMuted   = "8"
)

func colorEnabled() bool {
	if noColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return !IsJSONOutput() && !IsJSONLOutput()
}

func colorize(text, color string) string {
	if !colorEnabled() || text == "" {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

func heading(text string) string {
	if !colorEnabled() {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Render(text)
}

func formatDefaultBadge(isDefault bool) string {
	if !isDefault {
		return ""
	}
	return colorize("default", colorGreen)
}

// highlightUnresolved marks each {{key}} left in rendered output.
func highlightUnresolved(rendered string, unresolved []string) string {
	if len(unresolved) == 0 || !colorEnabled() {
		return rendered
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("11")).
		Bold(true)

	pairs := make([]string, 0, len(unresolved)*2)
	for _, key := range unresolved {
		placeholder := "{{" + key + "}}"
		pairs = append(pairs, placeholder, style.Render(placeholder))
	}
	return strings.NewReplacer(pairs...).Replace(rendered)
}

// formatVariableType colors the type column of variable tables.
func formatVariableType(key string, typ string) string {
	color := colorMuted
	switch typ {
	case "number", "currency":
		color = colorCyan
	case "date":
		color = colorBlue
	}
	if _, standard := templates.LookupStandard(key); standard {
		return colorize(typ, color) + colorize("*", colorMagenta)
	}
	return colorize(typ, color)
}

func formatRequired(required bool) string {
	if required {
		return colorize("required", colorYellow)
	}
	return "optional"
}
