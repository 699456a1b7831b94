package cli

import (
	"github.com/spf13/cobra"

	"github.com/eshaffer321/coolingoff/internal/domain/similarity"
)

func newMatchCommand() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:     "match CATEGORY BLACKLISTED...",
		Short:   "Score a category against blacklisted categories",
		Example: `  coolingoff match "Видеоигры" игры одежда --lang en`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := similarity.MatchAll(args[0], args[1:])
			PrintMatches(cmd.OutOrStdout(), args[0], result, lang)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "ru", "Reason language (ru or en)")
	return cmd
}
