package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
)

type ReturnCommand struct {
	storeFlags
	TransactionID string
}

func NewReturnCommand() *ReturnCommand {
	return &ReturnCommand{storeFlags: defaultStoreFlags()}
}

func (cmd *ReturnCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("return", flag.ContinueOnError)

	fs.StringVar(&cmd.TransactionID, "loan", "", "Transaction ID, e.g. T-0001 (required)")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s return [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Record the return of a borrowed book.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s return -loan T-0007\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Allow the ID as a positional argument too.
	if cmd.TransactionID == "" && fs.NArg() > 0 {
		cmd.TransactionID = fs.Arg(0)
	}
	if cmd.TransactionID == "" {
		fs.Usage()
		return fmt.Errorf("loan is required")
	}

	return nil
}

func (cmd *ReturnCommand) Run() error {
	repo, closeStore, err := cmd.openLoans()
	if err != nil {
		return err
	}
	defer closeStore()

	loan, err := repo.Return(context.Background(), cmd.TransactionID)
	if err != nil {
		return err
	}

	status := "on time"
	if loan.DateReturned != nil && loan.DateReturned.After(loan.DueDate) {
		status = "late"
	}
	cmd.printf("Returned %s (%s) on %s, %s\n", loan.ID, loan.BookID, loan.DateReturned, status)
	return nil
}
