package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/loans"
)

// storeFlags are the connection options shared by every loan command.
type storeFlags struct {
	DatabasePath string
	Out          io.Writer

	cfg *config.Config
}

// defaultStoreFlags takes flag defaults from the environment, the same way
// the server is configured.
func defaultStoreFlags() storeFlags {
	cfg := config.NewConfig()
	path := cfg.Database.Path
	if path == "" {
		path = config.DefaultDatabasePath
	}
	return storeFlags{DatabasePath: path, Out: os.Stdout, cfg: cfg}
}

// defaultLoanPeriod is LOAN_PERIOD_DAYS, or the built-in default when unset.
func (f storeFlags) defaultLoanPeriod() int {
	if f.cfg != nil && f.cfg.Loans.PeriodDays > 0 {
		return f.cfg.Loans.PeriodDays
	}
	return loans.DefaultLoanPeriodDays
}

// openLoans opens the configured store. DATABASE_DRIVER and DATABASE_DSN
// are honoured so commands can run against postgres as well.
func (f storeFlags) openLoans() (*loans.Repository, func(), error) {
	cfg := f.cfg
	if cfg == nil {
		cfg = config.NewConfig()
	}
	db, err := database.Open(database.Options{
		Driver:           cfg.Database.Driver,
		Path:             f.DatabasePath,
		DSN:              cfg.Database.DSN,
		StatementTimeout: cfg.Database.StatementTimeout,
		BusyTimeout:      cfg.Database.BusyTimeout,
		LogLevel:         cfg.Database.GormLogLevel(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	closer := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
		}
	}
	return loans.NewRepository(db.Runner(), nil), closer, nil
}

func (f storeFlags) printf(format string, args ...any) {
	fmt.Fprintf(f.Out, format, args...)
}
