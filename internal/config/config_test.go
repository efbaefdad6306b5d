package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 14, cfg.Loans.PeriodDays)
	assert.Equal(t, 16, cfg.Events.Buffer)
	assert.True(t, cfg.Tasks.Enabled)
	assert.False(t, cfg.OverdueReport.Enabled)
	assert.Equal(t, "0 8 * * *", cfg.OverdueReport.Schedule)
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_DSN", "postgres://library@localhost/library")
	t.Setenv("DATABASE_STATEMENT_TIMEOUT", "2s")
	t.Setenv("LOAN_PERIOD_DAYS", "21")
	t.Setenv("OVERDUE_REPORT_ENABLED", "true")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://library@localhost/library", cfg.Database.DSN)
	assert.Equal(t, 2*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 21, cfg.Loans.PeriodDays)
	assert.True(t, cfg.OverdueReport.Enabled)
}

func TestDatabase_GormLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"silent": logger.Silent,
		"error":  logger.Error,
		"warn":   logger.Warn,
		"info":   logger.Info,
		"":       logger.Warn,
		"loud":   logger.Warn,
	}
	for level, want := range tests {
		assert.Equal(t, want, Database{LogLevel: level}.GormLogLevel(), level)
	}
}
