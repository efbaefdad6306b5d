// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
// Each HTTP controller declares the small interface it needs and the
// repositories under internal/database satisfy them:
//
//   - CategoryStore: category CRUD (internal/http/categories.go)
//   - BookStore: catalog CRUD (internal/http/books.go)
//   - PatronStore: patron CRUD (internal/http/patrons.go)
//   - LoanStore: borrow, return and loan listings (internal/http/loans.go)
//   - AvailabilityChecker: open loan lookup per book (internal/http/books.go)
//
// Every repository method takes a context and returns *integrity.Error
// values for failures callers are expected to handle. Controllers map the
// error kind to an HTTP status in one place (respondStoreError).
//
// ## Background Work Interfaces
//
//   - TaskQueue: enqueue and inspect tasks (internal/http/tasks.go)
//   - TaskEnqueuer: what the cron scheduler needs (internal/scheduler)
//   - OverdueLister: read side of the overdue report (internal/tasks)
//
// ## Change Events
//
//   - Publisher: repositories announce committed writes (internal/events)
//   - EventSubscriber: the SSE endpoint listens (internal/http/events.go)
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., reservations):
//
//  1. Add the table to internal/database/schema.sql.
//
//  2. Create sub-package internal/database/reservations/ with a private row
//     type and a repository built on the shared unit-of-work runner:
//
//     type Repository struct {
//         runner *uow.Runner
//         pub    events.Publisher
//     }
//
//     func NewRepository(runner *uow.Runner, pub events.Publisher) *Repository
//
//  3. Reserve identifiers with sequence.Next inside the same Execute call
//     that inserts the row.
//
//  4. Add compile-time check:
//
//     var _ http.ReservationStore = (*reservations.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
