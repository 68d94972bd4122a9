package cli

import (
	"github.com/spf13/cobra"

	"github.com/helmlabs/helmsman/internal/config"
)

// Shared CLI flags (used across multiple command files)
var (
	cfgFile string
	quiet   bool
)

// Cfg holds the loaded configuration (set by main)
var Cfg *config.Config

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	Cfg = c

	rootCmd := &cobra.Command{
		Use:   "helmsman",
		Short: "Helmsman - browser automation tools for AI agents",
		Long: `Helmsman exposes a real browser as a set of MCP tools and ships an
agent client that lets a language model drive it.

Run 'helmsman serve' to start the tool server, or 'helmsman chat' to talk
to an agent that browses for you.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags are applied on top of this in each command, so an
			// explicit flag still wins over the config file.
			if cfgFile != "" {
				loaded, err := config.LoadFile(cfgFile)
				if err != nil {
					return err
				}
				*Cfg = loaded
			}
			if quiet {
				Cfg.Logging.Quiet = true
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: embedded defaults)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log to file only, keep stderr clean")

	// Add commands
	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(ChatCmd())

	return rootCmd
}
