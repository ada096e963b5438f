package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/epics-extensions/qtedm-runtime/internal/audit"
	"github.com/epics-extensions/qtedm-runtime/internal/render"
)

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect audit logs",
	}
	cmd.AddCommand(auditShowCmd())
	return cmd
}

func auditShowCmd() *cobra.Command {
	var tail int

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Pretty-print an audit log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("qtedm: audit show: %w", err)
			}
			defer f.Close()

			records, err := audit.Parse(f)
			if err != nil {
				return fmt.Errorf("qtedm: audit show: %w", err)
			}
			render.RenderAuditTail(records, tail)
			return nil
		},
	}
	cmd.Flags().IntVar(&tail, "tail", 0, "show only the most recent N records (0 = all)")
	return cmd
}
