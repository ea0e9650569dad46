// Package cli implements the rentdesk command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/contract"
	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rentdesk/rentdesk/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile        string
	dbPath         string
	logLevel       string
	jsonOutput     bool
	jsonlOutput    bool
	noColor        bool
	noProgress     bool
	nonInteractive bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rentdesk",
	Short: "Contract templates for rental management",
	Long: `rentdesk manages rental contract templates with {{variable}} placeholders:
extract and reconcile variables, store templates, and render contracts for tenants.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./.rentdesk/config.yaml or ~/.config/rentdesk/config.yaml)")
	flags.StringVar(&dbPath, "db", "", "database path (overrides database.path)")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&jsonOutput, "json", false, "output JSON")
	flags.BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&noProgress, "no-progress", false, "disable progress output")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "never prompt; fail instead")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func initApp(cmd *cobra.Command, args []string) error {
	v := viper.New()
	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("database.path", flags.Lookup("db")); err != nil {
		return err
	}
	if err := v.BindPFlag("logging.level", flags.Lookup("log-level")); err != nil {
		return err
	}

	cfg, err := config.LoadWithViper(v, cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg

	logging.Init(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	log := logging.Component("cli")
	log.Debug().
		Str("config", cfg.ConfigFile).
		Str("db", cfg.Database.Path).
		Msg("configuration loaded")
	return nil
}

// GetConfig returns the loaded configuration, or defaults before load.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}

// openDatabase opens the configured database and applies migrations.
func openDatabase() (*db.DB, error) {
	cfg := GetConfig()
	database, err := db.Open(db.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, &PreflightError{
			Message:  fmt.Sprintf("cannot open database at %s: %v", cfg.Database.Path, err),
			Hint:     "Check database.path in your config or pass --db",
			NextStep: "rentdesk migrate --db <path>",
		}
	}
	if err := database.Migrate(context.Background()); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}

func newContractService(database *db.DB) *contract.Service {
	return contract.NewService(
		db.NewContractTemplateRepository(database),
		db.NewTenantRepository(database),
		contract.WithEventRepository(db.NewEventRepository(database)),
		contract.WithUserID(GetConfig().Templates.UserID),
	)
}

// PreflightError is a failure with a suggested fix.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
}

func (e *PreflightError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Hint != "" {
		b.WriteString("\nhint: ")
		b.WriteString(e.Hint)
	}
	if e.NextStep != "" {
		b.WriteString("\nnext: ")
		b.WriteString(e.NextStep)
	}
	return b.String()
}

// IsJSONOutput reports whether --json was given.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsJSONLOutput reports whether --jsonl was given.
func IsJSONLOutput() bool {
	return jsonlOutput
}

// WriteOutput writes v as indented JSON, or as one compact line in JSONL mode.
func WriteOutput(out io.Writer, v any) error {
	if IsJSONLOutput() {
		encoder := json.NewEncoder(out)
		encoder.SetEscapeHTML(false)
		return encoder.Encode(v)
	}
	encoder := json.NewEncoder(out)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// HandleError prints err to stderr and returns the process exit code.
func HandleError(err error) int {
	if err == nil {
		return 0
	}
	if IsJSONOutput() || IsJSONLOutput() {
		_ = WriteOutput(os.Stderr, map[string]string{"error": err.Error()})
		return 1
	}
	fmt.Fprintln(os.Stderr, colorize("error: ", colorRed)+err.Error())
	return 1
}
