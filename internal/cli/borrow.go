package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
)

type BorrowCommand struct {
	storeFlags
	PatronID       string
	BookID         string
	LoanPeriodDays int
}

func NewBorrowCommand() *BorrowCommand {
	return &BorrowCommand{storeFlags: defaultStoreFlags()}
}

func (cmd *BorrowCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("borrow", flag.ContinueOnError)

	fs.StringVar(&cmd.PatronID, "patron", "", "Patron ID, e.g. PT-0001 (required)")
	fs.StringVar(&cmd.BookID, "book", "", "Book ID, e.g. BK-0001 (required)")
	fs.IntVar(&cmd.LoanPeriodDays, "days", cmd.defaultLoanPeriod(), "Loan period in days (default from LOAN_PERIOD_DAYS)")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s borrow [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Lend a book to a patron.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s borrow -patron PT-0001 -book BK-0042 -days 21\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.PatronID == "" || cmd.BookID == "" {
		fs.Usage()
		return fmt.Errorf("patron and book are required")
	}

	return nil
}

func (cmd *BorrowCommand) Run() error {
	repo, closeStore, err := cmd.openLoans()
	if err != nil {
		return err
	}
	defer closeStore()

	loan, err := repo.Borrow(context.Background(), cmd.PatronID, cmd.BookID, cmd.LoanPeriodDays)
	if err != nil {
		return err
	}

	cmd.printf("Lent %s to %s as %s, due %s\n", loan.BookID, loan.PatronID, loan.ID, loan.DueDate)
	return nil
}
