// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), schema
//	├── schema.sql       # Tables, foreign keys, open-loan unique index
//	├── uow/             # Unit-of-work runner: timeouts, transactions
//	├── integrity/       # Typed errors and driver error translation
//	├── sequence/        # Durable prefixed identifier generation
//	├── categories/      # Category CRUD
//	├── books/           # Catalog CRUD with category names
//	├── patrons/         # Patron CRUD
//	└── loans/           # Borrow, return and loan listings
//
// # Using Sub-packages
//
// Every repository shares the runner owned by Database:
//
//	db, err := database.Open(database.Options{Path: "./library.db"})
//
//	runner := db.Runner()
//	booksRepo := books.NewRepository(runner, bus)
//	loansRepo := loans.NewRepository(runner, bus)
//
//	loan, err := loansRepo.Borrow(ctx, "PT-0001", "BK-0042", 14)
//	if integrity.Is(err, integrity.KindBookUnavailable) {
//	    // already out
//	}
//
// # Consistency
//
// Writes run in one transaction per call. On sqlite every transaction takes
// the write lock at BEGIN (_txlock=immediate), on postgres it runs at
// read committed and relies on row locks and unique indexes. Identifier counters live in id_sequences and are
// advanced inside the same transaction as the insert, so a rolled back
// insert gives its number back.
//
// The schema is the source of truth for referential rules. Repositories
// let the store reject orphaned rows and referenced deletes, then translate
// the driver error with integrity.Translate.
package database
