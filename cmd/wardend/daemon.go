package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/closedclaw/warden/brain"
	"github.com/closedclaw/warden/call"
	"github.com/closedclaw/warden/command"
	"github.com/closedclaw/warden/db"
	"github.com/closedclaw/warden/dispatch"
	"github.com/closedclaw/warden/tools"
	"github.com/closedclaw/warden/voice"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the gatekeeper daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(parent context.Context) error {
	log := newLogger()
	owner := viper.GetString("owner.principal_id")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(ctx, dbConfigFromViper())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	policy, err := policyFromViper()
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	sessions, err := sessionsFromViper(log)
	if err != nil {
		return err
	}
	auditLog, auditStore, err := auditFromViper(gdb, log)
	if err != nil {
		return err
	}
	defer auditLog.Close()

	engine := engineFromViper(policy, sessions, auditLog, log)
	confirmations := dispatch.NewConfirmations(engine, 5*time.Minute)
	transport := &dispatch.ConsoleTransport{Log: log}
	notifier := notifierFromViper(transport, log)

	registry := registryFromViper()
	invoker := &tools.GatedInvoker{Engine: engine, Registry: registry}

	router := &command.Router{
		Engine:        engine,
		Sessions:      sessions,
		Invoker:       invoker,
		Confirmations: confirmations,
		Audit:         auditLog,
		AuditQuery:    auditStore,
		Log:           log,
	}

	redactor := brain.NewRedactor(viper.GetStringSlice("brain.redact_patterns")...)
	conv := call.NewConversation(brainFromViper(), &voice.LogSpeaker{Log: log}, voice.NewScript(), redactor, call.ConversationConfig{
		Model:       viper.GetString("brain.model"),
		TurnTimeout: viper.GetDuration("call.turn_timeout"),
		MaxDuration: viper.GetDuration("call.max_duration"),
	}, log)

	notes := call.NewNotesStore(gdb)
	tel := call.NewLoopback()
	monitor := call.NewMonitor(tel, engine, conv, func(ctx context.Context, s call.Summary) {
		if err := notes.Save(ctx, s); err != nil {
			log.Warn("call_note_save_error", "error", err.Error())
		}
		if err := notifier.Notify(ctx, owner, dispatch.FormatCallSummary(s), dispatch.PriorityNormal); err != nil {
			log.Warn("call_summary_notify_error", "error", err.Error())
		}
	}, call.MonitorConfig{
		Owner:       owner,
		PickupDelay: viper.GetDuration("call.pickup_delay"),
		AutoPickup:  viper.GetBool("call.auto_pickup"),
	}, log)

	poller := tools.NewPoller(invoker, notifier, tools.PollerConfig{
		Owner:    owner,
		Interval: viper.GetDuration("tools.poll_interval"),
	}, log)

	srv := newHTTPServer(httpDeps{
		listen:        viper.GetString("http.listen"),
		owner:         owner,
		router:        router,
		monitor:       monitor,
		tel:           tel,
		sessions:      sessions,
		confirmations: confirmations,
		auditStore:    auditStore,
		log:           log,
	})

	log.Info("daemon_start", "owner", owner, "listen", viper.GetString("http.listen"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return monitor.Run(ctx) })
	g.Go(func() error { return poller.Run(ctx) })
	g.Go(func() error {
		// Housekeeping: expired confirmation tokens, held notifications.
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				confirmations.Sweep()
				if err := notifier.Flush(ctx); err != nil {
					log.Warn("notify_flush_error", "error", err.Error())
				}
			}
		}
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()
	if err == context.Canceled {
		err = nil
	}
	log.Info("daemon_stop")
	return err
}
