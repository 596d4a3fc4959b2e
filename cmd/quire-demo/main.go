package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iw2rmb/quire"
	"github.com/iw2rmb/quire/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "quire-demo [document]",
		Short: "Edit a rich-text document in the terminal",
		Long: `Opens a JSON document in a terminal editor with markdown-style input
rules, lists, tasks and undo. When suggest.url is set, misspellings are
underlined as a spelling service answers; alt+s opens the suggestion menu.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Document.Path = args[0]
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (TOML or YAML)")
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), quire.VersionTag())
		},
	})
	return cmd
}
