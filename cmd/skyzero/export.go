package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/report"
)

func newExportCmd(c *cli) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the offset report PDF",
		Long: `Renders the offset report for the saved strategy list and writes it to
--out. Uses report.service_url when configured, otherwise renders in-process.
The attempt is recorded in the export history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			art, err := a.handler.Export(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, art.Data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			cmd.Printf("Wrote %s (%d bytes)\n", out, len(art.Data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", report.DefaultFilename, "output file")
	return cmd
}
