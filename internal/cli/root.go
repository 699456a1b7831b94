package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/coolingoff/internal/infrastructure/config"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/logging"
)

// GlobalFlags are shared by every command
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand builds the coolingoff command tree
func NewRootCommand() *cobra.Command {
	flags := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "coolingoff",
		Short: "Cooling-off period service for impulse purchases",
		Long: `coolingoff holds wishlist purchases for a waiting period sized by price,
warns when a purchase resembles a blacklisted category, and reminds users
once the waiting period is over.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "config.yaml", "Path to config file (falls back to environment variables)")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newServeCommand(flags),
		newSweepCommand(flags),
		newMatchCommand(),
		newResolveCommand(),
	)

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// load reads configuration and builds a logger for the named system
func (f *GlobalFlags) load(system string) (*config.Config, *slog.Logger) {
	cfg := config.LoadOrEnvWithPath(f.ConfigPath)
	loggingCfg := cfg.Observability.Logging
	if f.Verbose {
		loggingCfg.Level = "debug"
	}
	return cfg, logging.NewLoggerWithSystem(loggingCfg, system)
}
