package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/closedclaw/warden/audit"
	"github.com/closedclaw/warden/authz"
	"github.com/closedclaw/warden/brain"
	"github.com/closedclaw/warden/brain/openai"
	"github.com/closedclaw/warden/db"
	"github.com/closedclaw/warden/dispatch"
	"github.com/closedclaw/warden/internal/pathutil"
	"github.com/closedclaw/warden/session"
	"github.com/closedclaw/warden/tools"
)

func dbConfigFromViper() db.Config {
	cfg := db.DefaultConfig()

	cfg.Driver = viper.GetString("db.driver")
	cfg.DSN = viper.GetString("db.dsn")
	cfg.AutoMigrate = viper.GetBool("db.automigrate")

	cfg.SQLite.BusyTimeoutMs = viper.GetInt("db.sqlite.busy_timeout_ms")
	cfg.SQLite.WAL = viper.GetBool("db.sqlite.wal")
	cfg.SQLite.ForeignKeys = viper.GetBool("db.sqlite.foreign_keys")
	if cfg.SQLite.BusyTimeoutMs <= 0 {
		cfg.SQLite.BusyTimeoutMs = 5000
	}

	return cfg
}

func policyFromViper() (*authz.Policy, error) {
	blocklist := viper.GetStringSlice("guard.banking.blocklist")
	path := strings.TrimSpace(viper.GetString("guard.policy_path"))
	if path == "" {
		return authz.NewPolicy(blocklist...), nil
	}
	return authz.LoadPolicyFile(pathutil.ExpandHomePath(path), blocklist...)
}

func sessionsFromViper(log *slog.Logger) (*session.Store, error) {
	cfg := session.Config{
		Timeout:         viper.GetDuration("auth.session_timeout"),
		MaxPINRetries:   viper.GetInt("auth.max_pin_retries"),
		LockoutDuration: viper.GetDuration("auth.lockout_duration"),
	}

	dsn, err := db.ResolveSQLiteDSN(viper.GetString("db.dsn"))
	if err != nil {
		return nil, fmt.Errorf("resolve session dsn: %w", err)
	}
	persister, err := session.NewSQLitePersister(dsn)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return session.NewStore(cfg, persister, log), nil
}

// auditFromViper builds the audit pipeline: JSONL for the tamper-
// evident file trail, the database store for queries, one async logger
// in front of both.
func auditFromViper(gdb *gorm.DB, log *slog.Logger) (*audit.Logger, *audit.GormStore, error) {
	jsonlPath := strings.TrimSpace(viper.GetString("audit.jsonl_path"))
	if jsonlPath == "" {
		home, err := os.UserHomeDir()
		if err == nil && strings.TrimSpace(home) != "" {
			jsonlPath = filepath.Join(home, ".warden", "audit.jsonl")
		}
	}
	jsonlPath = pathutil.ExpandHomePath(jsonlPath)

	sinks := []audit.Sink{}
	if jsonlPath != "" {
		js, err := audit.NewJSONLSink(jsonlPath, viper.GetInt64("audit.rotate_max_bytes"))
		if err != nil {
			return nil, nil, fmt.Errorf("open audit jsonl: %w", err)
		}
		sinks = append(sinks, js)
	}
	store := audit.NewGormStore(gdb)
	sinks = append(sinks, store)

	logger := audit.NewLogger(&audit.MultiSink{Sinks: sinks}, viper.GetInt("audit.queue_size"), log)
	return logger, store, nil
}

func engineFromViper(policy *authz.Policy, sessions *session.Store, rec audit.Recorder, log *slog.Logger) *authz.Engine {
	return authz.NewEngine(policy, sessions, rec, authz.EngineConfig{
		L4Delay: viper.GetDuration("auth.l4_delay"),
	}, log)
}

func notifierFromViper(t dispatch.Transport, log *slog.Logger) *dispatch.Notifier {
	quiet := dispatch.QuietHours{
		Start: viper.GetString("notify.quiet_hours.start"),
		End:   viper.GetString("notify.quiet_hours.end"),
	}
	return dispatch.NewNotifier(t, quiet, log)
}

func brainFromViper() brain.Client {
	c := openai.New(viper.GetString("brain.base_url"), viper.GetString("brain.api_key"))
	return c
}

func registryFromViper() *tools.Registry {
	return tools.DefaultRegistry(
		viper.GetString("tools.whatsapp_path"),
		viper.GetString("tools.sms_path"),
		viper.GetString("tools.calendar_path"),
		viper.GetInt64("tools.file_max_bytes"),
		viper.GetStringSlice("tools.file_deny_paths"),
		viper.GetStringSlice("tools.file_allowed_dirs"),
	)
}
