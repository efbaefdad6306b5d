package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"gorm.io/gorm/logger"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Loans
		Events
		Tasks
		OverdueReport
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver string // sqlite or postgres
		Path   string // sqlite file, also the base name of the tasks database
		DSN    string // postgres connection string

		StatementTimeout time.Duration // Bound on every unit of work (default: 5s)
		BusyTimeout      time.Duration // sqlite write lock wait (default: 5s)
		LogLevel         string        // silent, error, warn or info
	}
	Loans struct {
		PeriodDays int // Loan length in days (default: 14)
	}
	Events struct {
		Buffer int // Per-subscriber change event buffer
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	OverdueReport struct {
		Enabled  bool
		Schedule string // Cron format: "0 8 * * *" = daily at 08:00
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	// Database defaults
	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_statement_timeout", "5s")
	v.SetDefault("database_busy_timeout", "5s")
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("loan_period_days", 14)
	v.SetDefault("events_buffer", 16)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("overdue_report_enabled", false)
	v.SetDefault("overdue_report_schedule", "0 8 * * *") // Daily at 08:00

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver:           strings.ToLower(v.GetString("DATABASE_DRIVER")),
			Path:             v.GetString("DATABASE_PATH"),
			DSN:              v.GetString("DATABASE_DSN"),
			StatementTimeout: v.GetDuration("DATABASE_STATEMENT_TIMEOUT"),
			BusyTimeout:      v.GetDuration("DATABASE_BUSY_TIMEOUT"),
			LogLevel:         strings.ToLower(v.GetString("DATABASE_LOG_LEVEL")),
		},
		Loans: Loans{
			PeriodDays: v.GetInt("LOAN_PERIOD_DAYS"),
		},
		Events: Events{
			Buffer: v.GetInt("EVENTS_BUFFER"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		OverdueReport: OverdueReport{
			Enabled:  v.GetBool("OVERDUE_REPORT_ENABLED"),
			Schedule: v.GetString("OVERDUE_REPORT_SCHEDULE"),
		},
	}
}

// GormLogLevel maps DATABASE_LOG_LEVEL to the gorm logger level.
func (d Database) GormLogLevel() logger.LogLevel {
	switch d.LogLevel {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
