package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/stagehand/internal/app"
)

type rootFlags struct {
	config  string
	prefs   string
	catalog string
	baseURL string
}

func (f *rootFlags) options() app.Options {
	return app.Options{
		ConfigPath:  f.config,
		PrefsPath:   f.prefs,
		CatalogPath: f.catalog,
		BaseURL:     f.baseURL,
	}
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "stagehand",
		Short:         "Operator console for staged mission actions",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "config path (default ~/.config/stagehand/config.toml)")
	pf.StringVar(&flags.prefs, "prefs", "", "preferences path (default ~/.config/stagehand/prefs.toml)")
	pf.StringVar(&flags.catalog, "catalog", "", "action catalog YAML (default built-in catalog)")
	pf.StringVar(&flags.baseURL, "base-url", "", "backend base URL (overrides config)")

	cmd.AddCommand(listCmd(flags), runCmd(flags), opCmd(flags), tailCmd(flags))
	return cmd
}

func listCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stage actions and operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.Setup(flags.options())
			if err != nil {
				return err
			}
			defer rt.Close()
			return app.List(cmd.OutOrStdout(), rt.Registry)
		},
	}
}

func runCmd(flags *rootFlags) *cobra.Command {
	var parallel bool

	cmd := &cobra.Command{
		Use:   "run <action-id>...",
		Short: "Run stage actions without the TUI",
		Long:  "Run stage actions in order, stopping at the first failure, or all at once with --parallel.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			opts.Echo = cmd.OutOrStdout()
			rt, err := app.Setup(opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			return app.RunActions(cmd.Context(), rt.Registry, args, parallel)
		},
	}
	cmd.Flags().BoolVar(&parallel, "parallel", false, "run every action concurrently")
	return cmd
}

func opCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "op <operation-id> [text...]",
		Short: "Run an operational action such as ignite, query or handover",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			opts.Echo = cmd.OutOrStdout()
			rt, err := app.Setup(opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			return app.RunOperation(cmd.Context(), rt.Registry, args[0], strings.Join(args[1:], " "))
		},
	}
}

func tailCmd(flags *rootFlags) *cobra.Command {
	var (
		lines    int
		failures bool
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the end of the operator log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(flags.options())
			if err != nil {
				return err
			}
			return app.Tail(cmd.OutOrStdout(), cfg.OperatorLogPath(), lines, failures)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines (0 for all)")
	cmd.Flags().BoolVar(&failures, "failures", false, "only show failure blocks")
	return cmd
}
