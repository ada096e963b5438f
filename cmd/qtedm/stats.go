package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/epics-extensions/qtedm-runtime/internal/display"
	"github.com/epics-extensions/qtedm-runtime/internal/env"
	"github.com/epics-extensions/qtedm-runtime/internal/protocol"
	"github.com/epics-extensions/qtedm-runtime/internal/render"
)

func statsCmd() *cobra.Command {
	var addr string
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "stats [display.adl ...]",
		Short: "Print channel and widget statistics",
		Long: `Without --addr, opens the named display files against a fresh local
engine, waits briefly for channels to settle, and prints one snapshot.
With --addr, fetches a running engine's /metrics endpoint instead (the
address passed to that engine's "qtedm run --metrics-addr").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				return fetchRemoteStats(cmd, addr)
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			return localStats(args, grace)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "fetch /metrics from a running engine's --metrics-addr instead of opening files locally")
	cmd.Flags().DurationVar(&grace, "grace", 500*time.Millisecond, "settle time before the local snapshot is taken")
	return cmd
}

func localStats(paths []string, grace time.Duration) error {
	settings := env.Load(true, true, "")
	newTransport := func() protocol.Transport { return protocol.NewSimulated() }
	eng := display.NewEngine(false, "", newTransport, newTransport)
	eng.Coordinator.Start()
	defer eng.Coordinator.Stop()

	var lastName string
	for _, p := range paths {
		resolved := settings.Resolve(p)
		if _, err := eng.Open(resolved); err != nil {
			return err
		}
		lastName = resolved
	}
	eng.SetExecute(true)
	time.Sleep(grace)

	render.RenderSnapshot(lastName, eng.Stats.Snapshot())
	return nil
}

func fetchRemoteStats(cmd *cobra.Command, addr string) error {
	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		return fmt.Errorf("qtedm: fetch %s/metrics: %w", addr, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}
