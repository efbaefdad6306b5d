package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/entities"
)

// OverdueLister provides the loans the overdue report covers.
type OverdueLister interface {
	ListOverdue(ctx context.Context, asOf entities.Date) ([]entities.Transaction, error)
	Today() entities.Date
}

// OverdueReportSink receives each finished report. The default sink logs it.
type OverdueReportSink func(asOf entities.Date, overdue []entities.Transaction)

// OverdueReportTask lists open loans past their due date.
type OverdueReportTask struct {
	// AsOf is a yyyy-MM-dd date; empty means today.
	AsOf string `json:"as_of,omitempty"`
}

// Config returns the queue configuration for overdue reports.
func (t OverdueReportTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_report",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueReportProcessor creates a processor function for OverdueReportTask.
func OverdueReportProcessor(lister OverdueLister, sink OverdueReportSink) backlite.QueueProcessor[OverdueReportTask] {
	if sink == nil {
		sink = logOverdueReport
	}
	return func(ctx context.Context, task OverdueReportTask) error {
		if lister == nil {
			return fmt.Errorf("overdue lister not configured")
		}

		asOf := lister.Today()
		if task.AsOf != "" {
			parsed, err := entities.ParseDate(task.AsOf)
			if err != nil {
				return fmt.Errorf("overdue report: %w", err)
			}
			asOf = parsed
		}

		overdue, err := lister.ListOverdue(ctx, asOf)
		if err != nil {
			return fmt.Errorf("overdue report: %w", err)
		}

		sink(asOf, overdue)
		return nil
	}
}

// NewOverdueReportQueue creates a backlite queue for overdue reports.
func NewOverdueReportQueue(lister OverdueLister, sink OverdueReportSink) backlite.Queue {
	return backlite.NewQueue(OverdueReportProcessor(lister, sink))
}

func logOverdueReport(asOf entities.Date, overdue []entities.Transaction) {
	log.Printf("[TASK] Overdue report for %s: %d loan(s)", asOf, len(overdue))
	for _, loan := range overdue {
		log.Printf("[TASK]   %s %q borrowed by %s (%s), due %s",
			loan.ID, loan.BookTitle, loan.PatronName, loan.PatronID, loan.DueDate)
	}
}
