package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/emissions"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/report"
)

var printer = message.NewPrinter(language.English)

func newSummaryCmd(c *cli) *cobra.Command {
	var (
		remote  bool
		feedURL string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print baseline, offsets and net emissions",
		Long: `Prints the offset summary for the saved strategy list.

The baseline comes from the stored activity data, or with --remote from the
emissions feed of a running server (telemetry.feed_url).`,
		Example: `  # Local database
  skyzero summary

  # Against a running server, as JSON
  skyzero summary --remote --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if remote {
				url := c.cfg.Telemetry.FeedURL
				if feedURL != "" {
					url = feedURL
				}
				snap, err := emissions.NewClient(url, nil).Fetch(cmd.Context())
				if err != nil {
					return err
				}
				a.planner.SetBaseline(offset.TonnesFromDecimal(snap.Total))
			}

			state := a.planner.State()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report.BuildRequest(state.Baseline, state.Summary, state.Strategies))
			}
			return printSummary(cmd.OutOrStdout(), state)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "take the baseline from the emissions feed")
	cmd.Flags().StringVar(&feedURL, "feed-url", "", "emissions feed URL (overrides telemetry.feed_url)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report payload as JSON")
	return cmd
}

func printSummary(w io.Writer, state offset.State) error {
	s := state.Summary
	netZero := "no"
	if s.IsNetZero {
		netZero = "yes"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Baseline emissions:\t%s tCO2e\n", report.FormatTonnes(state.Baseline.Value, 2))
	fmt.Fprintf(tw, "Total offset:\t%s tCO2e\n", report.FormatTonnes(s.TotalOffset.Value, 2))
	fmt.Fprintf(tw, "Net emissions:\t%s tCO2e\n", report.FormatTonnes(s.NetEmissions.Value, 2))
	fmt.Fprintf(tw, "Reduction:\t%s%%\n", s.ReductionPercentage.StringFixed(1))
	fmt.Fprintf(tw, "Net zero:\t%s\n", netZero)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	return printStrategies(w, state)
}

// printStrategies writes one row per strategy with its impact and share.
func printStrategies(w io.Writer, state offset.State) error {
	if len(state.Strategies) == 0 {
		fmt.Fprintln(w, "No offset strategies.")
		return nil
	}

	lines := make(map[offset.StrategyID]offset.StrategyImpact, len(state.Summary.Lines))
	for _, l := range state.Summary.Lines {
		lines[l.StrategyID] = l
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tQUANTITY\tIMPACT (tCO2e)\tSHARE")
	for _, st := range state.Strategies {
		l := lines[st.ID]
		printer.Fprintf(tw, "%s\t%s\t%v %s\t%s\t%s%%\n",
			st.ID, st.Type, st.Value.InexactFloat64(), st.Unit,
			report.FormatTonnes(l.Impact.Value, 2), l.Share.StringFixed(1))
	}
	return tw.Flush()
}
