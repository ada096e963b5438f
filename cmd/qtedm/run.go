package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/epics-extensions/qtedm-runtime/internal/display"
	"github.com/epics-extensions/qtedm-runtime/internal/env"
	"github.com/epics-extensions/qtedm-runtime/internal/obslog"
	"github.com/epics-extensions/qtedm-runtime/internal/protocol"
	"github.com/epics-extensions/qtedm-runtime/internal/render"
)

func runCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "run <display.adl> [more.adl...]",
		Short: "Load and execute one or more ADL display files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisplays(cmd, args, flags)
		},
	}
	registerRunFlags(cmd, &flags)
	return cmd
}

// runDisplays builds an Engine, opens every named display against it, and
// blocks until Ctrl+C — optionally driving the watch-mode renderer instead
// of running silently (§6).
func runDisplays(cmd *cobra.Command, paths []string, flags rootFlags) error {
	interval, err := time.ParseDuration(flags.interval)
	if err != nil {
		return fmt.Errorf("qtedm: --interval: %w", err)
	}

	settings := env.Load(flags.nolog, flags.execute, flags.metricsAddr)
	if settings.TrackMemSpec != "" {
		if memInterval, path, ok := obslog.ParseTrackMem(settings.TrackMemSpec); ok {
			tracker := obslog.NewMemTracker(memInterval, path)
			defer tracker.Stop()
		}
	}

	newTransport := func() protocol.Transport { return protocol.NewSimulated() }
	eng := display.NewEngine(!settings.NoLog, "", newTransport, newTransport)

	if settings.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(eng.Stats.Registry(), promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: settings.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				obslog.Default().Error("metrics server failed", "addr", settings.MetricsAddr, "err", err)
			}
		}()
		defer srv.Close()
	}

	eng.Coordinator.Start()
	defer eng.Coordinator.Stop()
	defer eng.Audit.Close()

	eng.SetExecute(settings.Execute)

	var lastName string
	for _, p := range paths {
		resolved := settings.Resolve(p)
		if _, err := eng.Open(resolved); err != nil {
			return err
		}
		lastName = resolved
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if flags.watch {
		render.Watch(ctx, interval, func() {
			render.RenderSnapshot(lastName, eng.Stats.Snapshot())
		})
		return nil
	}

	<-ctx.Done()
	fmt.Fprintln(cmd.OutOrStdout(), "qtedm: shutting down")
	return nil
}
