package render

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rodaine/table"

	"github.com/epics-extensions/qtedm-runtime/internal/audit"
	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/stats"
)

// ClearScreen resets the terminal cursor to the top-left for watch-mode
// redraw, matching the teacher's output.ClearScreen.
func ClearScreen() {
	fmt.Print("\033[2J\033[H")
}

// RenderSnapshot prints one full, non-looping report: header, per-channel
// table, and process counters (the `qtedm stats` subcommand's output).
func RenderSnapshot(displayName string, snap stats.Snapshot) {
	renderHeader(displayName, snap)
	renderChannelTable(snap)
	renderCounters(snap)
}

func renderHeader(displayName string, snap stats.Snapshot) {
	fmt.Println()
	fmt.Println(cyan("╭─────────────────────────────────────────────────────────────────╮"))
	fmt.Printf("%s %-66s%s\n", cyan("│"), bold("QtEDM Runtime Statistics"), cyan("│"))
	if displayName != "" {
		fmt.Printf("%s  display: %-57s%s\n", cyan("│"), displayName, cyan("│"))
	}
	fmt.Println(cyan("╰─────────────────────────────────────────────────────────────────╯"))
	fmt.Println()
}

func renderChannelTable(snap stats.Snapshot) {
	fmt.Println(bold("Channels"))
	if len(snap.Channels) == 0 {
		fmt.Println(dim("  (none subscribed)"))
		fmt.Println()
		return
	}
	channels := append([]channel.Summary(nil), snap.Channels...)
	sort.Slice(channels, func(i, j int) bool { return channels[i].PVName < channels[j].PVName })

	tbl := table.New("PV", "State", "Severity", "Subscribers", "Updates", "Rate", "Writable")
	for _, c := range channels {
		writable := dim("no")
		if c.Writable {
			writable = green("yes")
		}
		tbl.AddRow(c.PVName, ConnectedLabel(c.Connected), SeverityLabel(c.Severity),
			c.SubscriberCount, c.UpdateCount, Rate(c.UpdateRate), writable)
	}
	tbl.Print()
	fmt.Println()
}

func renderCounters(snap stats.Snapshot) {
	fmt.Println(bold("Process Counters"))
	fmt.Printf("  channels created/destroyed : %d / %d\n", snap.ChannelsCreated, snap.ChannelsDestroyed)
	fmt.Printf("  connected/disconnected     : %d / %d\n", snap.Connected, snap.Disconnected)
	fmt.Printf("  CA events / PVA events     : %d / %d\n", snap.CAEvents, snap.PVAEvents)
	fmt.Printf("  repaints requested/executed: %d / %d\n", snap.UpdatesRequested, snap.UpdatesExecuted)
	fmt.Printf("  displays opened/closed     : %d / %d\n", snap.DisplaysOpened, snap.DisplaysClosed)
	fmt.Println()
}

// RenderAuditTail prints the most recent n audit records (the `qtedm audit
// show` subcommand's output), oldest first within the shown window.
func RenderAuditTail(records []audit.Record, n int) {
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	tbl := table.New("Time", "User", "Widget", "PV", "Value", "Display")
	for _, r := range records {
		tbl.AddRow(r.Timestamp, r.User, r.WidgetType, r.PVName, r.Value, r.DisplayFile)
	}
	tbl.Print()
}

// Watch runs fn every interval until ctx is canceled, clearing the screen
// before each redraw (the `-watch`/`--watch` CLI mode).
func Watch(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ClearScreen()
		fn()
		fmt.Println(dim("Press Ctrl+C to exit"))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
