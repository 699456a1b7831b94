package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/coolingoff/internal/domain/cooling"
)

func newResolveCommand() *cobra.Command {
	var rangeFlags []string

	cmd := &cobra.Command{
		Use:     "resolve PRICE",
		Short:   "Resolve the cooling period for a price",
		Example: `  coolingoff resolve 2500 --range 0:1000:1 --range 1000::7`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", args[0], err)
			}
			ranges, err := ParseRanges(rangeFlags)
			if err != nil {
				return err
			}

			PrintDecision(cmd.OutOrStdout(), price, cooling.Decide(time.Now(), price, ranges))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&rangeFlags, "range", nil, "Range as min:max:days, empty max for no upper bound (repeatable, first match wins)")
	return cmd
}
