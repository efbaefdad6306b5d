package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mrlokans/librarian/internal/entities"
)

type OutstandingCommand struct {
	storeFlags
	OverdueOnly bool
}

func NewOutstandingCommand() *OutstandingCommand {
	return &OutstandingCommand{storeFlags: defaultStoreFlags()}
}

func (cmd *OutstandingCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("outstanding", flag.ContinueOnError)

	fs.BoolVar(&cmd.OverdueOnly, "overdue", false, "Only list loans past their due date")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s outstanding [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List books currently on loan, most recent first.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *OutstandingCommand) Run() error {
	repo, closeStore, err := cmd.openLoans()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	var loans []entities.Transaction
	if cmd.OverdueOnly {
		loans, err = repo.ListOverdue(ctx, repo.Today())
	} else {
		loans, err = repo.ListOutstanding(ctx)
	}
	if err != nil {
		return err
	}

	if len(loans) == 0 {
		cmd.printf("No books are on loan\n")
		return nil
	}

	w := tabwriter.NewWriter(cmd.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LOAN\tBOOK\tTITLE\tPATRON\tBORROWED\tDUE")
	for _, loan := range loans {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			loan.ID, loan.BookID, loan.BookTitle, loan.PatronName, loan.DateBorrowed, loan.DueDate)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	cmd.printf("\n%d book(s) on loan\n", len(loans))
	return nil
}
