package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/entities"
)

// LoanStore defines the borrow and return operations.
type LoanStore interface {
	Borrow(ctx context.Context, patronID, bookID string, loanPeriodDays int) (entities.Transaction, error)
	Return(ctx context.Context, transactionID string) (entities.Transaction, error)
	Get(ctx context.Context, transactionID string) (entities.Transaction, error)
	ListOutstanding(ctx context.Context) ([]entities.Transaction, error)
	ListAll(ctx context.Context) ([]entities.Transaction, error)
	ListOverdue(ctx context.Context, asOf entities.Date) ([]entities.Transaction, error)
	IsBorrowed(ctx context.Context, bookID string) (bool, error)
	Today() entities.Date
}

type LoansController struct {
	store             LoanStore
	defaultPeriodDays int
}

func NewLoansController(store LoanStore, defaultPeriodDays int) *LoansController {
	return &LoansController{store: store, defaultPeriodDays: defaultPeriodDays}
}

// BorrowRequest is the request body for lending a book.
type BorrowRequest struct {
	PatronID string `json:"patron_id"`
	BookID   string `json:"book_id"`
	// LoanPeriodDays falls back to the configured default when omitted.
	LoanPeriodDays *int `json:"loan_period_days,omitempty"`
}

// ListOutstanding returns open loans, most recent first
// GET /api/loans
func (lc *LoansController) ListOutstanding(c *gin.Context) {
	loans, err := lc.store.ListOutstanding(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "list outstanding loans")
		return
	}
	respondLoans(c, loans)
}

// ListHistory returns every loan, open and closed
// GET /api/loans/history
func (lc *LoansController) ListHistory(c *gin.Context) {
	loans, err := lc.store.ListAll(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "list loan history")
		return
	}
	respondLoans(c, loans)
}

// ListOverdue returns open loans past their due date. ?as_of=yyyy-MM-dd
// overrides today.
// GET /api/loans/overdue
func (lc *LoansController) ListOverdue(c *gin.Context) {
	asOf := lc.store.Today()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := entities.ParseDate(raw)
		if err != nil {
			respondBadRequest(c, "as_of must be a yyyy-MM-dd date")
			return
		}
		asOf = parsed
	}

	loans, err := lc.store.ListOverdue(c.Request.Context(), asOf)
	if err != nil {
		respondStoreError(c, err, "list overdue loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"as_of": asOf,
		"loans": loans,
		"count": len(loans),
	})
}

// GetLoan returns one loan
// GET /api/loans/:id
func (lc *LoansController) GetLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := lc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "get loan")
		return
	}
	c.JSON(http.StatusOK, loan)
}

// Borrow lends a book to a patron
// POST /api/loans
func (lc *LoansController) Borrow(c *gin.Context) {
	var req BorrowRequest
	if !bindJSON(c, &req) {
		return
	}

	period := lc.defaultPeriodDays
	if req.LoanPeriodDays != nil {
		period = *req.LoanPeriodDays
	}

	loan, err := lc.store.Borrow(c.Request.Context(), req.PatronID, req.BookID, period)
	if err != nil {
		respondStoreError(c, err, "borrow book")
		return
	}
	respondCreated(c, loan)
}

// Return closes a loan
// POST /api/loans/:id/return
func (lc *LoansController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := lc.store.Return(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "return book")
		return
	}
	c.JSON(http.StatusOK, loan)
}

func respondLoans(c *gin.Context, loans []entities.Transaction) {
	c.JSON(http.StatusOK, gin.H{
		"loans": loans,
		"count": len(loans),
	})
}
