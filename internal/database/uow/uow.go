// Package uow runs data layer operations as scoped units of work.
//
// Every call gets its own bounded context and, for writes, its own
// transaction that is committed on success and rolled back on any error or
// panic. Store errors leave this package already translated into
// integrity kinds.
//
//	runner := uow.New(db, 5*time.Second, nil)
//	err := runner.Execute(ctx, func(tx *gorm.DB) error {
//	    id, err := seq.Next(tx, sequence.Book)
//	    ...
//	    return tx.Create(&row).Error
//	})
package uow

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database/integrity"
)

// DefaultTimeout bounds a unit of work when none is configured.
const DefaultTimeout = 5 * time.Second

// Runner executes units of work against one database.
type Runner struct {
	db      *gorm.DB
	timeout time.Duration
	txOpts  *sql.TxOptions
}

// New creates a runner. timeout <= 0 uses DefaultTimeout. txOpts may be nil
// to use the driver default isolation.
func New(db *gorm.DB, timeout time.Duration, txOpts *sql.TxOptions) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{db: db, timeout: timeout, txOpts: txOpts}
}

// Timeout returns the per-operation deadline.
func (r *Runner) Timeout() time.Duration {
	return r.timeout
}

// Execute runs fn inside a transaction bounded by the runner timeout.
func (r *Runner) Execute(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var opts []*sql.TxOptions
	if r.txOpts != nil {
		opts = append(opts, r.txOpts)
	}
	err := r.db.WithContext(ctx).Transaction(fn, opts...)
	return integrity.Translate(err)
}

// Read runs fn without an explicit transaction. Use it for single-statement
// queries that need no isolation beyond the statement itself.
func (r *Runner) Read(ctx context.Context, fn func(db *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return integrity.Translate(fn(r.db.WithContext(ctx)))
}
