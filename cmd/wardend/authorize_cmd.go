package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/closedclaw/warden/authz"
	"github.com/closedclaw/warden/db"
	"github.com/closedclaw/warden/internal/clifmt"
)

// authorizeCmd runs one decision against the live session state. It is
// a diagnostic: the decision is audited like any other.
var authorizeCmd = &cobra.Command{
	Use:   "authorize <action-kind>",
	Short: "Check whether an action would currently be permitted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := oneShotDecision(cmd.Context(), args[0], newLogger())
		if err != nil {
			return err
		}

		line := fmt.Sprintf("%s  decision=%s required=%s", args[0], res.Decision, res.RequiredLevel)
		if res.Reason != "" {
			line += "  reason=" + res.Reason
		}
		if res.Granted() {
			fmt.Println(clifmt.Success(line))
		} else {
			fmt.Println(clifmt.Warn(line))
		}
		return nil
	},
}

// oneShotDecision evaluates kind with the full pipeline, audit trail
// included. The logger is closed before returning so the record is
// durable by the time the process exits.
func oneShotDecision(ctx context.Context, kind string, log *slog.Logger) (authz.Result, error) {
	gdb, err := db.Open(ctx, dbConfigFromViper())
	if err != nil {
		return authz.Result{}, fmt.Errorf("open database: %w", err)
	}
	policy, err := policyFromViper()
	if err != nil {
		return authz.Result{}, err
	}
	sessions, err := sessionsFromViper(log)
	if err != nil {
		return authz.Result{}, err
	}
	auditLog, _, err := auditFromViper(gdb, log)
	if err != nil {
		return authz.Result{}, err
	}
	engine := engineFromViper(policy, sessions, auditLog, log)

	owner := viper.GetString("owner.principal_id")
	res := engine.Authorize(ctx, owner, authz.Action{
		Kind:        kind,
		RequestedAt: time.Now(),
	})
	auditLog.Close()
	return res, nil
}

func init() {
	rootCmd.AddCommand(authorizeCmd)
}
