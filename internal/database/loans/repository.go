// Package loans manages the borrow and return lifecycle of books.
//
// A loan is a row in the transactions table. It is open while date_returned
// is NULL, and a book has at most one open loan at a time. Borrow checks
// availability and inserts the loan in the same unit of work; the partial
// unique index idx_transactions_open_book rejects a concurrent double borrow
// that slipped past the check.
package loans

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database/integrity"
	"github.com/mrlokans/librarian/internal/database/sequence"
	"github.com/mrlokans/librarian/internal/database/uow"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/events"
)

// DefaultLoanPeriodDays is the loan length used when none is configured.
const DefaultLoanPeriodDays = 14

// MaxLoanPeriodDays bounds a single loan to ten years.
const MaxLoanPeriodDays = 3650

const openBookIndex = "idx_transactions_open_book"

type row struct {
	ID           string        `gorm:"column:transaction_id;primaryKey"`
	BookID       string        `gorm:"column:book_id"`
	PatronID     string        `gorm:"column:patron_id"`
	DateBorrowed entities.Date `gorm:"column:date_borrowed"`
	DueDate      entities.Date `gorm:"column:due_date"`
	DateReturned entities.Date `gorm:"column:date_returned"`
}

func (row) TableName() string { return "transactions" }

// entity converts the row. A NULL date_returned scans to the zero Date.
func (r row) entity() entities.Transaction {
	t := entities.Transaction{
		ID:           r.ID,
		BookID:       r.BookID,
		PatronID:     r.PatronID,
		DateBorrowed: r.DateBorrowed,
		DueDate:      r.DueDate,
	}
	if !r.DateReturned.IsZero() {
		returned := r.DateReturned
		t.DateReturned = &returned
	}
	return t
}

// listRow is a loan joined with the patron's name and the book's title.
type listRow struct {
	row
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
	Title     string `gorm:"column:title"`
}

func (r listRow) entity() entities.Transaction {
	t := r.row.entity()
	t.PatronName = entities.Patron{FirstName: r.FirstName, LastName: r.LastName}.FullName()
	t.BookTitle = r.Title
	return t
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// Repository handles loan operations.
type Repository struct {
	runner *uow.Runner
	events events.Publisher
	now    func() time.Time
}

// NewRepository creates a new loans repository. pub may be nil.
func NewRepository(runner *uow.Runner, pub events.Publisher, opts ...Option) *Repository {
	if pub == nil {
		pub = events.Noop{}
	}
	r := &Repository{runner: runner, events: pub, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Today returns the current calendar day according to the repository clock.
func (r *Repository) Today() entities.Date {
	return entities.DateOf(r.now())
}

// Borrow lends the book to the patron for loanPeriodDays days starting today.
func (r *Repository) Borrow(ctx context.Context, patronID, bookID string, loanPeriodDays int) (entities.Transaction, error) {
	patronID = strings.TrimSpace(patronID)
	bookID = strings.TrimSpace(bookID)

	fields := map[string]string{}
	if patronID == "" {
		fields["patron_id"] = "is required"
	}
	if bookID == "" {
		fields["book_id"] = "is required"
	}
	switch {
	case loanPeriodDays <= 0:
		fields["loan_period_days"] = "must be greater than 0"
	case loanPeriodDays > MaxLoanPeriodDays:
		fields["loan_period_days"] = fmt.Sprintf("must be at most %d", MaxLoanPeriodDays)
	}
	if len(fields) > 0 {
		return entities.Transaction{}, integrity.ValidationFields("invalid borrow request", fields)
	}

	today := r.Today()
	var loan entities.Transaction
	err := r.runner.Execute(ctx, func(tx *gorm.DB) error {
		var patron struct {
			FirstName string
			LastName  string
		}
		err := tx.Table("patrons").Select("first_name, last_name").
			Where("patron_id = ?", patronID).Take(&patron).Error
		if err != nil {
			return notFound(err, "patron %s not found", patronID)
		}

		var book struct{ Title string }
		err = tx.Table("books").Select("title").Where("book_id = ?", bookID).Take(&book).Error
		if err != nil {
			return notFound(err, "book %s not found", bookID)
		}

		var open int64
		err = tx.Model(&row{}).Where("book_id = ? AND date_returned IS NULL", bookID).Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return integrity.BookUnavailablef("book %s is already on loan", bookID)
		}

		id, err := sequence.Next(tx, sequence.Transaction)
		if err != nil {
			return err
		}
		record := row{
			ID:           id,
			BookID:       bookID,
			PatronID:     patronID,
			DateBorrowed: today,
			DueDate:      today.AddDays(loanPeriodDays),
		}
		if err := tx.Create(&record).Error; err != nil {
			return insertError(err, bookID)
		}

		loan = listRow{row: record, FirstName: patron.FirstName, LastName: patron.LastName, Title: book.Title}.entity()
		return nil
	})
	if err != nil {
		return entities.Transaction{}, err
	}

	r.events.Publish(events.New(events.EntityTransaction, events.ActionBorrowed, loan.ID))
	return loan, nil
}

// Return closes the loan with today's date.
func (r *Repository) Return(ctx context.Context, transactionID string) (entities.Transaction, error) {
	transactionID = strings.TrimSpace(transactionID)
	today := r.Today()

	var loan entities.Transaction
	err := r.runner.Execute(ctx, func(tx *gorm.DB) error {
		var found listRow
		if err := joined(tx).Where("transactions.transaction_id = ?", transactionID).Take(&found).Error; err != nil {
			return notFound(err, "transaction %s not found", transactionID)
		}
		if !found.DateReturned.IsZero() {
			return integrity.AlreadyReturnedf("transaction %s was returned on %s", transactionID, found.DateReturned)
		}

		res := tx.Model(&row{}).
			Where("transaction_id = ? AND date_returned IS NULL", transactionID).
			Update("date_returned", today)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return integrity.AlreadyReturnedf("transaction %s was already returned", transactionID)
		}

		found.DateReturned = today
		loan = found.entity()
		return nil
	})
	if err != nil {
		return entities.Transaction{}, err
	}

	r.events.Publish(events.New(events.EntityTransaction, events.ActionReturned, loan.ID))
	return loan, nil
}

// Get returns one loan with patron name and book title.
func (r *Repository) Get(ctx context.Context, transactionID string) (entities.Transaction, error) {
	var found listRow
	err := r.runner.Read(ctx, func(db *gorm.DB) error {
		return joined(db).Where("transactions.transaction_id = ?", transactionID).Take(&found).Error
	})
	if err != nil {
		return entities.Transaction{}, notFound(err, "transaction %s not found", transactionID)
	}
	return found.entity(), nil
}

// ListOutstanding returns open loans, most recently borrowed first.
func (r *Repository) ListOutstanding(ctx context.Context) ([]entities.Transaction, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("transactions.date_returned IS NULL").Order(newestFirst)
	})
}

// ListAll returns the full loan history, most recently borrowed first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Transaction, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Order(newestFirst)
	})
}

// ListOverdue returns open loans due before asOf, longest overdue first.
func (r *Repository) ListOverdue(ctx context.Context, asOf entities.Date) ([]entities.Transaction, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("transactions.date_returned IS NULL AND transactions.due_date < ?", asOf).
			Order("transactions.due_date ASC, LENGTH(transactions.transaction_id) ASC, transactions.transaction_id ASC")
	})
}

// IsBorrowed reports whether the book currently has an open loan.
func (r *Repository) IsBorrowed(ctx context.Context, bookID string) (bool, error) {
	var open int64
	err := r.runner.Read(ctx, func(db *gorm.DB) error {
		return db.Model(&row{}).Where("book_id = ? AND date_returned IS NULL", bookID).Count(&open).Error
	})
	if err != nil {
		return false, err
	}
	return open > 0, nil
}

const newestFirst = "transactions.date_borrowed DESC, LENGTH(transactions.transaction_id) DESC, transactions.transaction_id DESC"

func (r *Repository) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]entities.Transaction, error) {
	var rows []listRow
	err := r.runner.Read(ctx, func(db *gorm.DB) error {
		return scope(joined(db)).Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	loans := make([]entities.Transaction, 0, len(rows))
	for _, l := range rows {
		loans = append(loans, l.entity())
	}
	return loans, nil
}

func joined(db *gorm.DB) *gorm.DB {
	return db.Table("transactions").
		Select("transactions.*, patrons.first_name, patrons.last_name, books.title").
		Joins("JOIN patrons ON patrons.patron_id = transactions.patron_id").
		Joins("JOIN books ON books.book_id = transactions.book_id")
}

func notFound(err error, format string, args ...any) error {
	translated := integrity.Translate(err)
	if integrity.Is(translated, integrity.KindNotFound) {
		return integrity.NotFoundf(format, args...).WithCause(err)
	}
	return translated
}

// insertError reports a unique violation on the open-loan index as the book
// being unavailable rather than a generic duplicate.
func insertError(err error, bookID string) error {
	translated := integrity.Translate(err)
	typed, ok := integrity.As(translated)
	if !ok || typed.Kind != integrity.KindDuplicateKey {
		return translated
	}
	if strings.Contains(typed.Constraint, openBookIndex) || strings.Contains(typed.Constraint, "book_id") {
		return integrity.BookUnavailablef("book %s is already on loan", bookID).WithCause(err)
	}
	return translated
}
