// termfolio serves a portfolio as a read-only shell: visitors browse
// mounted manifests with ls, cd and cat through the web terminal, the
// HTTP API or a local TUI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/termfolio/termfolio/internal/config"
	"github.com/termfolio/termfolio/internal/logging"
)

var (
	version    = "0.1.0"
	mountsFile string
	homeAlias  string
	verbose    bool
	cfg        *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "termfolio",
		Short: "A portfolio you browse with a shell",
		Long: `termfolio mounts portfolio manifests (local files, S3, HTTP, GitHub,
IPFS or ENS) into one namespace and lets visitors explore it with a small
shell: ls, cd, cat, pipes into grep/head/tail/wc, and tab completion.

Serve the web terminal:   termfolio serve
Browse locally:           termfolio repl
Run one line:             termfolio exec 'ls -l | head -3'`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	rootCmd.PersistentFlags().StringVar(&mountsFile, "mounts", "", "mounts file (default $TERMFOLIO_MOUNTS_FILE or mounts.yaml)")
	rootCmd.PersistentFlags().StringVar(&homeAlias, "home", "", "alias of the home mount (default $TERMFOLIO_HOME_ALIAS or ~)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr in local commands")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("termfolio v%s\n", version)
		},
	})
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(replCmd())
	rootCmd.AddCommand(execCmd())
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(hashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flag overrides. Only serve
// logs to stdout; local commands stay quiet unless --verbose.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if mountsFile != "" {
		c.MountsFile = mountsFile
	}
	if homeAlias != "" {
		c.HomeAlias = homeAlias
	}
	cfg = c

	switch {
	case cmd.Name() == "serve":
		return logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	case verbose:
		return logging.Init(logging.Config{Level: "debug", Format: "console", OutputPath: "stderr"})
	default:
		logging.InitNop()
		return nil
	}
}
