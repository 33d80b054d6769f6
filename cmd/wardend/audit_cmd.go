package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/closedclaw/warden/audit"
	"github.com/closedclaw/warden/db"
	"github.com/closedclaw/warden/internal/clifmt"
)

var (
	auditPrincipal string
	auditAction    string
	auditOutcome   string
	auditLimit     int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the local audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = newLogger()
		gdb, err := db.Open(cmd.Context(), dbConfigFromViper())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		store := audit.NewGormStore(gdb)
		recs, err := store.Query(cmd.Context(), audit.Filter{
			PrincipalID: auditPrincipal,
			ActionKind:  auditAction,
			Outcome:     audit.Outcome(auditOutcome),
			Limit:       auditLimit,
		})
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println(clifmt.Dim("no audit records"))
			return nil
		}
		fmt.Println(audit.MarshalRecords(recs))
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditPrincipal, "principal", "", "filter by principal id")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "filter by action kind")
	auditCmd.Flags().StringVar(&auditOutcome, "outcome", "", "filter by outcome (granted, denied, blocked, error)")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "max records")
	rootCmd.AddCommand(auditCmd)
}
