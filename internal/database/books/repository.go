// Package books provides database operations for the book catalog.
//
// Book IDs are issued as BK-0001, BK-0002, ... inside the same transaction as
// the insert. A book must belong to an existing category and cannot be
// deleted while any loan, open or closed, references it.
//
// # Usage
//
//	repo := books.NewRepository(db.Runner(), bus)
//	book, err := repo.Create(ctx, entities.BookDraft{Title: "Dune", Author: "Frank Herbert", CategoryID: "FICT001"})
package books

import (
	"context"
	"database/sql"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database/integrity"
	"github.com/mrlokans/librarian/internal/database/sequence"
	"github.com/mrlokans/librarian/internal/database/uow"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/events"
)

type row struct {
	ID              string         `gorm:"column:book_id;primaryKey"`
	Title           string         `gorm:"column:title"`
	Author          string         `gorm:"column:author"`
	ISBN            sql.NullString `gorm:"column:isbn"`
	PublicationYear int            `gorm:"column:publication_year"`
	CategoryID      string         `gorm:"column:category_id"`
}

func (row) TableName() string { return "books" }

// listRow is a book joined with its category name.
type listRow struct {
	row
	CategoryName string `gorm:"column:category_name"`
}

func toRow(b entities.Book) row {
	return row{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            sql.NullString{String: b.ISBN, Valid: b.ISBN != ""},
		PublicationYear: b.PublicationYear,
		CategoryID:      b.CategoryID,
	}
}

func (r row) entity() entities.Book {
	return entities.Book{
		ID:              r.ID,
		Title:           r.Title,
		Author:          r.Author,
		ISBN:            r.ISBN.String,
		PublicationYear: r.PublicationYear,
		CategoryID:      r.CategoryID,
	}
}

// Repository handles all book database operations.
type Repository struct {
	runner *uow.Runner
	events events.Publisher
}

// NewRepository creates a new books repository. pub may be nil.
func NewRepository(runner *uow.Runner, pub events.Publisher) *Repository {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Repository{runner: runner, events: pub}
}

// Create validates the draft, reserves the next book ID and inserts the book.
func (r *Repository) Create(ctx context.Context, draft entities.BookDraft) (entities.Book, error) {
	draft = draft.Normalize()
	if err := entities.Validate(draft); err != nil {
		return entities.Book{}, err
	}

	var created entities.Book
	err := r.runner.Execute(ctx, func(tx *gorm.DB) error {
		id, err := sequence.Next(tx, sequence.Book)
		if err != nil {
			return err
		}
		created = draft.Book(id)
		record := toRow(created)
		if err := tx.Create(&record).Error; err != nil {
			return writeError(err, created)
		}
		return nil
	})
	if err != nil {
		return entities.Book{}, err
	}

	r.events.Publish(events.New(events.EntityBook, events.ActionCreated, created.ID))
	return created, nil
}

// Get returns the book with its category name.
func (r *Repository) Get(ctx context.Context, id string) (entities.Book, error) {
	var found listRow
	err := r.runner.Read(ctx, func(db *gorm.DB) error {
		return withCategory(db).Where("books.book_id = ?", id).Take(&found).Error
	})
	if integrity.Is(err, integrity.KindNotFound) {
		return entities.Book{}, integrity.NotFoundf("book %s not found", id)
	}
	if err != nil {
		return entities.Book{}, err
	}
	return found.entity(), nil
}

// FindByISBN returns the book with the given ISBN.
func (r *Repository) FindByISBN(ctx context.Context, isbn string) (entities.Book, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return entities.Book{}, integrity.ValidationFields("isbn is required",
			map[string]string{"isbn": "is required"})
	}

	var found listRow
	err := r.runner.Read(ctx, func(db *gorm.DB) error {
		return withCategory(db).Where("books.isbn = ?", isbn).Take(&found).Error
	})
	if integrity.Is(err, integrity.KindNotFound) {
		return entities.Book{}, integrity.NotFoundf("no book with isbn %s", isbn)
	}
	if err != nil {
		return entities.Book{}, err
	}
	return found.entity(), nil
}

// ListAll returns every book ordered by ID, each with its category name.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Book, error) {
	var rows []listRow
	err := r.runner.Read(ctx, func(db *gorm.DB) error {
		// Shorter IDs first so BK-9999 sorts before BK-10000.
		return withCategory(db).Order("LENGTH(books.book_id) ASC, books.book_id ASC").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	books := make([]entities.Book, 0, len(rows))
	for _, b := range rows {
		books = append(books, b.entity())
	}
	return books, nil
}

// Update replaces every mutable field of the book identified by b.ID.
func (r *Repository) Update(ctx context.Context, b entities.Book) (entities.Book, error) {
	b = b.Normalize()
	if b.ID == "" {
		return entities.Book{}, integrity.ValidationFields("id is required",
			map[string]string{"id": "is required"})
	}
	if err := entities.Validate(b); err != nil {
		return entities.Book{}, err
	}

	err := r.runner.Execute(ctx, func(tx *gorm.DB) error {
		record := toRow(b)
		res := tx.Model(&row{}).Where("book_id = ?", b.ID).Updates(map[string]any{
			"title":            record.Title,
			"author":           record.Author,
			"isbn":             record.ISBN,
			"publication_year": record.PublicationYear,
			"category_id":      record.CategoryID,
		})
		if res.Error != nil {
			return writeError(res.Error, b)
		}
		if res.RowsAffected == 0 {
			return integrity.NotFoundf("book %s not found", b.ID)
		}
		return nil
	})
	if err != nil {
		return entities.Book{}, err
	}

	r.events.Publish(events.New(events.EntityBook, events.ActionUpdated, b.ID))
	return b, nil
}

// Delete removes the book. It fails while any transaction references it.
func (r *Repository) Delete(ctx context.Context, id string) error {
	err := r.runner.Execute(ctx, func(tx *gorm.DB) error {
		res := tx.Where("book_id = ?", id).Delete(&row{})
		if res.Error != nil {
			if integrity.Is(integrity.Translate(res.Error), integrity.KindReferentialConstraint) {
				return integrity.ReferentialConstraintf("book %s has loan history", id).WithCause(res.Error)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return integrity.NotFoundf("book %s not found", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.events.Publish(events.New(events.EntityBook, events.ActionDeleted, id))
	return nil
}

func withCategory(db *gorm.DB) *gorm.DB {
	return db.Table("books").
		Select("books.*, categories.category_name").
		Joins("JOIN categories ON categories.category_id = books.category_id")
}

func (r listRow) entity() entities.Book {
	b := r.row.entity()
	b.CategoryName = r.CategoryName
	return b
}

// writeError gives insert and update failures a message naming the book.
func writeError(err error, b entities.Book) error {
	translated := integrity.Translate(err)
	typed, ok := integrity.As(translated)
	if !ok {
		return translated
	}

	switch typed.Kind {
	case integrity.KindReferentialConstraint:
		return integrity.ReferentialConstraintf("category %s does not exist", b.CategoryID).WithCause(err)
	case integrity.KindDuplicateKey:
		if strings.Contains(typed.Constraint, "isbn") {
			dup := integrity.DuplicateKeyf("a book with isbn %s already exists", b.ISBN).WithCause(err)
			dup.Constraint = typed.Constraint
			return dup
		}
	}
	return translated
}
