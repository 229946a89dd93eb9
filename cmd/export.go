package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/taskplugin/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		flags      searchFlags
		outputFile string
		productID  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export due tasks as iCalendar",
		Long: `Write the due tasks matching a search as an iCalendar stream of VTODO
components, for calendar tools that import .ics files.`,
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

			var buf bytes.Buffer
			n, err := export.WriteICS(&buf, events, export.Options{ProductID: productID, Location: time.Local})
			if errors.Is(err, export.ErrNoTasks) {
				logger.Warn("no tasks to export")
				return nil
			}
			if err != nil {
				return err
			}

			if outputFile == "" {
				_, err = buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := os.WriteFile(outputFile, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d tasks to: %s\n", n, outputFile)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&productID, "product-id", export.DefaultProductID, "PRODID of the generated calendar")

	return cmd
}
