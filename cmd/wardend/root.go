package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "wardend",
	Short: "On-device assistant gatekeeper",
	Long: "wardend runs the authorization engine, the call monitor and the\n" +
		"message dispatcher for a personal on-device assistant.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.warden/config.yaml)")
}

func initConfig() {
	if strings.TrimSpace(cfgFile) != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil && strings.TrimSpace(home) != "" {
			viper.AddConfigPath(filepath.Join(home, ".warden"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("WARDEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config_read_error", "error", err.Error())
		}
	}
}

func setDefaults() {
	viper.SetDefault("log.level", "info")

	viper.SetDefault("auth.session_timeout", 300*time.Second)
	viper.SetDefault("auth.max_pin_retries", 3)
	viper.SetDefault("auth.lockout_duration", 15*time.Minute)
	viper.SetDefault("auth.l4_delay", 10*time.Second)

	viper.SetDefault("call.pickup_delay", 20*time.Second)
	viper.SetDefault("call.max_duration", 3*time.Minute)
	viper.SetDefault("call.turn_timeout", 10*time.Second)
	viper.SetDefault("call.auto_pickup", true)

	viper.SetDefault("audit.jsonl_path", "")
	viper.SetDefault("audit.rotate_max_bytes", int64(100*1024*1024))
	viper.SetDefault("audit.queue_size", 256)

	viper.SetDefault("db.driver", "sqlite")
	viper.SetDefault("db.dsn", "~/.warden/warden.db")
	viper.SetDefault("db.automigrate", true)
	viper.SetDefault("db.sqlite.wal", true)
	viper.SetDefault("db.sqlite.busy_timeout_ms", 5000)
	viper.SetDefault("db.sqlite.foreign_keys", true)

	viper.SetDefault("owner.principal_id", "owner")

	viper.SetDefault("tools.whatsapp_path", "~/.warden/whatsapp.txt")
	viper.SetDefault("tools.sms_path", "~/.warden/sms.txt")
	viper.SetDefault("tools.calendar_path", "~/.warden/calendar.yaml")
	viper.SetDefault("tools.file_max_bytes", int64(256*1024))
	viper.SetDefault("tools.file_deny_paths", []string{
		"credentials.json", "wallet.dat", ".netrc", "id_rsa", "id_ed25519",
	})
	viper.SetDefault("tools.file_allowed_dirs", []string{"~"})
	viper.SetDefault("tools.poll_interval", 30*time.Second)

	viper.SetDefault("http.listen", "127.0.0.1:8787")

	viper.SetDefault("brain.base_url", "https://api.openai.com/v1")
	viper.SetDefault("brain.model", "gpt-4o-mini")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(viper.GetString("log.level"))) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}
