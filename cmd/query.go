package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/taskplugin/internal/calendar"
)

// searchFlags are shared by the search and export commands.
type searchFlags struct {
	query    string
	start    string
	end      string
	excluded []string
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Only include tasks whose title contains this text")
	cmd.Flags().StringVar(&f.start, "start", "", "Earliest due time: RFC3339, YYYY-MM-DD or epoch milliseconds (inclusive)")
	cmd.Flags().StringVar(&f.end, "end", "", "Latest due time: RFC3339, YYYY-MM-DD or epoch milliseconds (inclusive)")
	cmd.Flags().StringSliceVar(&f.excluded, "exclude-list", nil, "List ids to leave out (repeatable or comma-separated)")
}

// toQuery builds a calendar.Query, interpreting dates in loc.
func (f *searchFlags) toQuery(loc *time.Location) (calendar.Query, error) {
	var q calendar.Query
	if f.query != "" {
		text := f.query
		q.Text = &text
	}

	var err error
	if q.Start, err = calendar.ParseOptionalTimeBound(f.start, loc); err != nil {
		return q, fmt.Errorf("--start: %w", err)
	}
	if q.End, err = calendar.ParseOptionalTimeBound(f.end, loc); err != nil {
		return q, fmt.Errorf("--end: %w", err)
	}
	if q.Start != nil && q.End != nil && *q.Start > *q.End {
		return q, fmt.Errorf("--start must not be after --end")
	}

	q.ExcludedCalendars = f.excluded
	return q, nil
}

func newSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search due tasks",
		Long: `Search the Tasks app for tasks with a due date and print them as
calendar events in JSON. Prints an empty list while the read permission is
missing; see "taskplugin state".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := flags.toQuery(time.Local)
			if err != nil {
				return err
			}

			b, err := newBackend(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			events, err := b.provider.Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), events)
		},
	}
	flags.register(cmd)

	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Print a single task",
		Long: `Print the task with the given id, or a task URI such as
content://org.tasks/tasks/42, as a calendar event in JSON. Prints null when
the task does not exist or has no due date.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := newBackend(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			var event *calendar.Event
			if isURI(args[0]) {
				event, err = b.provider.GetByURI(cmd.Context(), args[0])
			} else {
				event, err = b.provider.Get(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), event)
		},
	}
}

func newListsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Print the Tasks app's lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := newBackend(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			lists, err := b.provider.CalendarLists(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), lists)
		},
	}
}

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print whether the plugin is ready",
		Long: `Print the plugin state as JSON. When setup is required the output
names the action that resolves it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := newBackend(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			return printJSON(cmd.OutOrStdout(), b.provider.PluginState(cmd.Context()))
		},
	}
}

func isURI(s string) bool {
	return strings.Contains(s, "://")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
