package http

import (
	"context"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/entities"
)

// BookStore defines database operations for the catalog.
type BookStore interface {
	Create(ctx context.Context, draft entities.BookDraft) (entities.Book, error)
	Get(ctx context.Context, id string) (entities.Book, error)
	ListAll(ctx context.Context) ([]entities.Book, error)
	Update(ctx context.Context, b entities.Book) (entities.Book, error)
	Delete(ctx context.Context, id string) error
}

// AvailabilityChecker reports whether a book is out on loan.
type AvailabilityChecker interface {
	IsBorrowed(ctx context.Context, bookID string) (bool, error)
}

type BooksController struct {
	store BookStore
	loans AvailabilityChecker
}

func NewBooksController(store BookStore, loans AvailabilityChecker) *BooksController {
	return &BooksController{store: store, loans: loans}
}

// bookRequest accepts publication_year as a number or a string, the way
// form-backed clients send it.
type bookRequest struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	PublicationYear any    `json:"publication_year"`
	CategoryID      string `json:"category_id"`
}

func (r bookRequest) draft() (entities.BookDraft, error) {
	year, err := parseYear(r.PublicationYear)
	if err != nil {
		return entities.BookDraft{}, err
	}
	return entities.BookDraft{
		Title:           r.Title,
		Author:          r.Author,
		ISBN:            r.ISBN,
		PublicationYear: year,
		CategoryID:      r.CategoryID,
	}, nil
}

func parseYear(v any) (int, error) {
	switch year := v.(type) {
	case nil:
		return 0, nil
	case float64:
		// JSON numbers decode as float64; only whole numbers are years.
		if year != math.Trunc(year) || math.Abs(year) > math.MaxInt32 {
			return entities.ParsePublicationYear("invalid")
		}
		return int(year), nil
	case string:
		return entities.ParsePublicationYear(year)
	default:
		return entities.ParsePublicationYear("invalid")
	}
}

// ListBooks returns all books ordered by ID with their category names
// GET /api/books
func (bc *BooksController) ListBooks(c *gin.Context) {
	books, err := bc.store.ListAll(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"count": len(books),
	})
}

// GetBook returns one book
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook adds a book to the catalog
// POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}
	draft, err := req.draft()
	if err != nil {
		respondStoreError(c, err, "create book")
		return
	}

	book, err := bc.store.Create(c.Request.Context(), draft)
	if err != nil {
		respondStoreError(c, err, "create book")
		return
	}
	respondCreated(c, book)
}

// UpdateBook replaces a book's fields
// PUT /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}
	draft, err := req.draft()
	if err != nil {
		respondStoreError(c, err, "update book")
		return
	}

	book, err := bc.store.Update(c.Request.Context(), draft.Book(id))
	if err != nil {
		respondStoreError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook removes a book with no loan history
// DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

// GetAvailability reports whether a book can be borrowed
// GET /api/books/:id/availability
func (bc *BooksController) GetAvailability(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := bc.store.Get(ctx, id); err != nil {
		respondStoreError(c, err, "get book")
		return
	}

	borrowed, err := bc.loans.IsBorrowed(ctx, id)
	if err != nil {
		respondStoreError(c, err, "book availability")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"book_id":   id,
		"borrowed":  borrowed,
		"available": !borrowed,
	})
}
