package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/closedclaw/warden/authz"
	"github.com/closedclaw/warden/brain"
	"github.com/closedclaw/warden/call"
	"github.com/closedclaw/warden/dispatch"
	"github.com/closedclaw/warden/internal/clifmt"
	"github.com/closedclaw/warden/session"
	"github.com/closedclaw/warden/voice"
)

var (
	simCaller string
	simDelay  time.Duration
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Call handling utilities",
}

// callSimulateCmd drives a synthetic incoming call through the real
// state machine, engine included, without touching the database.
var callSimulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate an unanswered incoming call",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()

		policy, err := policyFromViper()
		if err != nil {
			return err
		}
		sessions := session.NewStore(session.Config{}, nil, log)
		engine := authz.NewEngine(policy, sessions, nil, authz.EngineConfig{}, log)

		red := brain.NewRedactor()
		conv := call.NewConversation(cannedBrain{}, &voice.LogSpeaker{Log: log}, voice.NewScript(
			"Hello, is this the right number?",
			"Please tell them to call me back about the delivery.",
			"Okay, goodbye.",
		), red, call.ConversationConfig{
			Model:       "canned",
			TurnTimeout: 2 * time.Second,
			MaxDuration: 30 * time.Second,
		}, log)

		tel := call.NewLoopback()
		doneCh := make(chan call.Summary, 1)
		monitor := call.NewMonitor(tel, engine, conv, func(_ context.Context, s call.Summary) {
			doneCh <- s
		}, call.MonitorConfig{
			Owner:       viper.GetString("owner.principal_id"),
			PickupDelay: simDelay,
			AutoPickup:  viper.GetBool("call.auto_pickup"),
		}, log)

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		go func() { _ = monitor.Run(ctx) }()

		fmt.Println(clifmt.Headerf("ring from %s, auto pickup in %s", simCaller, simDelay))
		tel.Ring(simCaller)

		select {
		case s := <-doneCh:
			fmt.Println(dispatch.FormatCallSummary(s))
		case <-ctx.Done():
			picked, rejected := tel.Counts()
			if rejected > 0 {
				fmt.Println(clifmt.Warn("call rejected (auto pickup disabled or denied)"))
				return nil
			}
			return fmt.Errorf("simulation timed out (picked=%d state=%s)", picked, monitor.State())
		}
		return nil
	},
}

// cannedBrain keeps the simulator offline.
type cannedBrain struct{}

func (cannedBrain) Generate(ctx context.Context, req brain.Request) (string, error) {
	_ = ctx
	_ = req
	return "I'll pass that along. Anything else?", nil
}

func init() {
	callSimulateCmd.Flags().StringVar(&simCaller, "caller", "+15550100", "caller id")
	callSimulateCmd.Flags().DurationVar(&simDelay, "pickup-delay", 2*time.Second, "ring time before auto pickup")
	callCmd.AddCommand(callSimulateCmd)
	rootCmd.AddCommand(callCmd)
}
