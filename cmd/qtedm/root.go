package main

import (
	"github.com/spf13/cobra"
)

// rootFlags are shared between the bare root invocation ("qtedm a.adl") and
// the explicit "qtedm run" subcommand, mirroring the teacher's
// cmd/monitor/main.go + cmd/monitor/watch.go flag split.
type rootFlags struct {
	nolog       bool
	execute     bool
	watch       bool
	metricsAddr string
	interval    string
}

func rootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "qtedm [display.adl ...]",
		Short: "Headless PV runtime for EPICS operator displays",
		Long: `qtedm loads one or more ADL display files, subscribes their widgets'
channels through the shared channel manager, and reports channel and
widget state on the terminal. Bare invocation with file arguments is
shorthand for "qtedm run".`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runDisplays(cmd, args, flags)
		},
	}

	registerRunFlags(cmd, &flags)

	cmd.AddCommand(runCmd(), statsCmd(), auditCmd())
	return cmd
}

func registerRunFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.Flags().BoolVar(&flags.nolog, "nolog", false, "disable audit logging (QTEDM_NOLOG)")
	cmd.Flags().BoolVarP(&flags.execute, "execute", "x", false, "start the display in execute mode")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "redraw a live channel/widget table instead of running silently")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "bind a Prometheus /metrics endpoint at this address (e.g. :9090)")
	cmd.Flags().StringVar(&flags.interval, "interval", "2s", "redraw interval for --watch")
}
