package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/categories"
	"github.com/mrlokans/librarian/internal/database/loans"
	"github.com/mrlokans/librarian/internal/database/patrons"
	"github.com/mrlokans/librarian/internal/events"
	"github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.CategoryStore = (*categories.Repository)(nil)
var _ http.BookStore = (*books.Repository)(nil)
var _ http.PatronStore = (*patrons.Repository)(nil)

// LoanStore and AvailabilityChecker implementations
var _ http.LoanStore = (*loans.Repository)(nil)
var _ http.AvailabilityChecker = (*loans.Repository)(nil)
var _ tasks.OverdueLister = (*loans.Repository)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)

// =============================================================================
// Change Events
// =============================================================================

var _ events.Publisher = (*events.Bus)(nil)
var _ events.Publisher = events.Noop{}
var _ http.EventSubscriber = (*events.Bus)(nil)
