package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rentdesk/rentdesk/internal/models"
	"github.com/rentdesk/rentdesk/internal/templates"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	exportTemplateOut string

	exportEventsType   string
	exportEventsEntity string
	exportEventsSince  string
	exportEventsLimit  int
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportTemplateCmd)
	exportCmd.AddCommand(exportEventsCmd)

	exportTemplateCmd.Flags().StringVarP(&exportTemplateOut, "output", "o", "", "write YAML to a file instead of stdout")

	exportEventsCmd.Flags().StringVar(&exportEventsType, "type", "", "filter by event type (e.g. template.rendered)")
	exportEventsCmd.Flags().StringVar(&exportEventsEntity, "entity", "", "filter by template or tenant ID")
	exportEventsCmd.Flags().StringVar(&exportEventsSince, "since", "", "only events after a duration ago (1h) or RFC3339 time")
	exportEventsCmd.Flags().IntVar(&exportEventsLimit, "limit", 0, "maximum events to export (0 for all)")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export rentdesk data",
}

var exportTemplateCmd = &cobra.Command{
	Use:   "template <id>",
	Short: "Export a stored template as a YAML template file",
	Long:  "Export a stored template in the format read by `template import` and the template search paths.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		tmpl, err := newContractService(database).Get(contextOf(cmd), args[0])
		if err != nil {
			return notFoundHint(err, args[0])
		}

		data, err := yaml.Marshal(templates.Template{
			Name:      tmpl.Name,
			Content:   tmpl.Content,
			Variables: tmpl.Variables,
			IsDefault: tmpl.IsDefault,
		})
		if err != nil {
			return fmt.Errorf("failed to encode template: %w", err)
		}

		if exportTemplateOut == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportTemplateOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportTemplateOut, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", exportTemplateOut)
		return nil
	},
}

var exportEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Export the event log",
	Long:  "Export template and tenant events in timestamp order. Use --jsonl for one event per line.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		query := db.EventQuery{Limit: 200}
		if exportEventsType != "" {
			eventType := models.EventType(exportEventsType)
			query.Type = &eventType
		}
		if exportEventsEntity != "" {
			query.EntityID = &exportEventsEntity
		}
		since, err := parseSince(exportEventsSince, time.Now())
		if err != nil {
			return err
		}
		query.Since = since

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()
		repo := db.NewEventRepository(database)

		events := make([]*models.Event, 0)
		for {
			page, err := repo.Query(ctx, query)
			if err != nil {
				return err
			}
			events = append(events, page.Events...)
			if exportEventsLimit > 0 && len(events) >= exportEventsLimit {
				events = events[:exportEventsLimit]
				break
			}
			if page.NextCursor == "" {
				break
			}
			query.Cursor = page.NextCursor
		}

		if IsJSONLOutput() {
			for _, event := range events {
				if err := WriteOutput(cmd.OutOrStdout(), event); err != nil {
					return err
				}
			}
			return nil
		}
		if IsJSONOutput() {
			return WriteOutput(cmd.OutOrStdout(), events)
		}

		rows := make([][]string, 0, len(events))
		for _, event := range events {
			rows = append(rows, []string{
				formatTimestamp(event.Timestamp),
				string(event.Type),
				string(event.EntityType),
				event.EntityID,
			})
		}
		return writeTable(cmd.OutOrStdout(), []string{"TIME", "TYPE", "ENTITY", "ID"}, rows)
	},
}

// parseSince accepts a duration before now ("90m", "2h") or an RFC3339
// timestamp. Empty input means no bound.
func parseSince(value string, now time.Time) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		t := now.Add(-d)
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("invalid --since %q: use a duration like 1h or an RFC3339 time", value)
}
