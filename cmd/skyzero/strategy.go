package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
)

func newStrategyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Edit the offset strategy list",
	}
	cmd.AddCommand(
		newStrategyListCmd(c),
		newStrategyAddCmd(c),
		newStrategyRemoveCmd(c),
		newStrategySetCmd(c),
	)
	return cmd
}

func newStrategyListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List strategies with their impact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return printStrategies(cmd.OutOrStdout(), a.planner.State())
		},
	}
}

func newStrategyAddCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "add TYPE [VALUE]",
		Short: "Add a strategy (VALUE defaults to 100)",
		Example: `  skyzero strategy add "RECs" 1500
  skyzero strategy add "SAF Usage" 10`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := decimal.NewFromInt(100)
			if len(args) == 2 {
				v, err := decimal.NewFromString(args[1])
				if err != nil {
					return fmt.Errorf("value %q: %w", args[1], err)
				}
				value = v
			}

			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			st, state := a.planner.Add(cmd.Context(), args[0], value)
			if st.Type != args[0] {
				cmd.PrintErrf("Unknown type %q, added as %s\n", args[0], st.Type)
			}
			cmd.Printf("Added %s: %s %s %s (total offset %s tCO2e)\n",
				st.ID, st.Type, st.Value.String(), st.Unit, state.Summary.TotalOffset.Value.StringFixed(2))
			return nil
		},
	}
}

func newStrategyRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a strategy (no-op when absent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			summary := a.planner.Remove(cmd.Context(), offset.StrategyID(args[0]))
			cmd.Printf("Removed %s (total offset %s tCO2e)\n", args[0], summary.TotalOffset.Value.StringFixed(2))
			return nil
		},
	}
}

func newStrategySetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set ID FIELD VALUE",
		Short: "Change the type or value of a strategy",
		Example: `  skyzero strategy set 3f2a... value 250
  skyzero strategy set 3f2a... type "Carbon Credit"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			st, state, err := a.planner.Update(cmd.Context(), offset.StrategyID(args[0]), offset.Field(args[1]), args[2])
			if err != nil {
				return err
			}
			cmd.Printf("Updated %s: %s %s %s (total offset %s tCO2e)\n",
				st.ID, st.Type, st.Value.String(), st.Unit, state.Summary.TotalOffset.Value.StringFixed(2))
			return nil
		},
	}
}
