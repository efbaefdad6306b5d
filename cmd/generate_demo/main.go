// Command generate_demo creates a demo library database with sample
// categories, books, patrons and loans.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/categories"
	"github.com/mrlokans/librarian/internal/database/loans"
	"github.com/mrlokans/librarian/internal/database/patrons"
	"github.com/mrlokans/librarian/internal/entities"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(*dbPath + suffix); err != nil && !os.IsNotExist(err) {
			log.Fatalf("Failed to remove existing demo database: %v", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create demo directory: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runner := db.Runner()

	categoryIDs := createCategories(ctx, categories.NewRepository(runner, nil))
	bookIDs := createBooks(ctx, books.NewRepository(runner, nil), categoryIDs)
	patronIDs := createPatrons(ctx, patrons.NewRepository(runner, nil))
	createLoans(ctx, loans.NewRepository(runner, nil), patronIDs, bookIDs)

	log.Println("Demo database generated successfully!")
}

func createCategories(ctx context.Context, repo *categories.Repository) map[string]string {
	names := []string{"Fiction", "Philosophy", "Science", "History"}

	ids := make(map[string]string, len(names))
	for _, name := range names {
		c, err := repo.Create(ctx, entities.CategoryDraft{Name: name})
		if err != nil {
			log.Printf("Failed to create category %s: %v", name, err)
			continue
		}
		ids[name] = c.ID
		log.Printf("Category %s: %s", c.ID, c.Name)
	}
	return ids
}

type demoBook struct {
	entities.BookDraft
	Category string
}

func getPublicDomainBooks() []demoBook {
	return []demoBook{
		{entities.BookDraft{Title: "Pride and Prejudice", Author: "Jane Austen", ISBN: "9780141439518", PublicationYear: 1813}, "Fiction"},
		{entities.BookDraft{Title: "Moby-Dick", Author: "Herman Melville", ISBN: "9780142437247", PublicationYear: 1851}, "Fiction"},
		{entities.BookDraft{Title: "Frankenstein", Author: "Mary Shelley", PublicationYear: 1818}, "Fiction"},
		{entities.BookDraft{Title: "Meditations", Author: "Marcus Aurelius", ISBN: "9780140449334", PublicationYear: 180}, "Philosophy"},
		{entities.BookDraft{Title: "Beyond Good and Evil", Author: "Friedrich Nietzsche", PublicationYear: 1886}, "Philosophy"},
		{entities.BookDraft{Title: "On the Origin of Species", Author: "Charles Darwin", ISBN: "9780451529060", PublicationYear: 1859}, "Science"},
		{entities.BookDraft{Title: "Relativity: The Special and General Theory", Author: "Albert Einstein", PublicationYear: 1916}, "Science"},
		{entities.BookDraft{Title: "The History of the Peloponnesian War", Author: "Thucydides"}, "History"},
	}
}

func createBooks(ctx context.Context, repo *books.Repository, categoryIDs map[string]string) []string {
	var ids []string
	for _, b := range getPublicDomainBooks() {
		draft := b.BookDraft
		draft.CategoryID = categoryIDs[b.Category]
		book, err := repo.Create(ctx, draft)
		if err != nil {
			log.Printf("Failed to save book %s: %v", draft.Title, err)
			continue
		}
		ids = append(ids, book.ID)
		log.Printf("Saved: %s %s by %s", book.ID, book.Title, book.Author)
	}
	return ids
}

func createPatrons(ctx context.Context, repo *patrons.Repository) []string {
	drafts := []entities.PatronDraft{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0101"},
		{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"},
		{FirstName: "Grace", LastName: "Hopper", Address: "1 Navy Yard"},
	}

	var ids []string
	for _, d := range drafts {
		p, err := repo.Create(ctx, d)
		if err != nil {
			log.Printf("Failed to create patron %s %s: %v", d.FirstName, d.LastName, err)
			continue
		}
		ids = append(ids, p.ID)
		log.Printf("Patron %s: %s", p.ID, p.FullName())
	}
	return ids
}

// createLoans lends the first few books round-robin and returns the first loan,
// so the demo has both open and closed history.
func createLoans(ctx context.Context, repo *loans.Repository, patronIDs, bookIDs []string) {
	if len(patronIDs) == 0 {
		return
	}
	for i, bookID := range bookIDs {
		if i >= 4 {
			break
		}
		loan, err := repo.Borrow(ctx, patronIDs[i%len(patronIDs)], bookID, loans.DefaultLoanPeriodDays)
		if err != nil {
			log.Printf("Failed to lend %s: %v", bookID, err)
			continue
		}
		log.Printf("Loan %s: %s to %s, due %s", loan.ID, loan.BookID, loan.PatronID, loan.DueDate)
		if i == 0 {
			if _, err := repo.Return(ctx, loan.ID); err != nil {
				log.Printf("Failed to return %s: %v", loan.ID, err)
			}
		}
	}
}
