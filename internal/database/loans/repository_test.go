package loans

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/integrity"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/events"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, days)
}

func setupTestDB(t *testing.T) (*database.Database, *Repository, *testClock, func()) {
	db, err := database.Open(database.Options{
		Path:     filepath.Join(t.TempDir(), "test_loans.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)

	seed := []string{
		"INSERT INTO categories (category_id, category_name) VALUES ('FICT001', 'Fiction')",
		"INSERT INTO books (book_id, title, author, publication_year, category_id) VALUES ('BK-0001', 'Dune', 'Frank Herbert', 1965, 'FICT001')",
		"INSERT INTO books (book_id, title, author, publication_year, category_id) VALUES ('BK-0002', 'Emma', 'Jane Austen', 1815, 'FICT001')",
		"INSERT INTO patrons (patron_id, first_name, last_name) VALUES ('PT-0001', 'Ada', 'Lovelace')",
		"INSERT INTO patrons (patron_id, first_name, last_name) VALUES ('PT-0002', 'Alan', 'Turing')",
	}
	for _, stmt := range seed {
		require.NoError(t, db.DB.Exec(stmt).Error)
	}

	clock := &testClock{now: time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)}
	repo := NewRepository(db.Runner(), nil, WithClock(clock.Now))

	cleanup := func() {
		db.Close()
	}

	return db, repo, clock, cleanup
}

func TestRepository_Borrow(t *testing.T) {
	_, repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	loan, err := repo.Borrow(ctx, "PT-0001", "BK-0001", 14)
	require.NoError(t, err)

	assert.Equal(t, "T-0001", loan.ID)
	assert.Equal(t, "BK-0001", loan.BookID)
	assert.Equal(t, "PT-0001", loan.PatronID)
	assert.Equal(t, "2024-03-01", loan.DateBorrowed.String())
	assert.Equal(t, "2024-03-15", loan.DueDate.String())
	assert.Nil(t, loan.DateReturned)
	assert.Equal(t, "Ada Lovelace", loan.PatronName)
	assert.Equal(t, "Dune", loan.BookTitle)

	borrowed, err := repo.IsBorrowed(ctx, "BK-0001")
	require.NoError(t, err)
	assert.True(t, borrowed)
}

func TestRepository_Borrow_SecondBorrowIsUnavailable(t *testing.T) {
	_, repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.Borrow(ctx, "PT-0001", "BK-0001", 14)
	require.NoError(t, err)

	_, err = repo.Borrow(ctx, "PT-0002", "BK-0001", 14)
	assert.ErrorIs(t, err, integrity.ErrBookUnavailable)

	outstanding, err := repo.ListOutstanding(ctx)
	require.NoError(t, err)
	assert.Len(t, outstanding, 1)
}

func TestRepository_Borrow_ConcurrentOnlyOneWins(t *testing.T) {
	_, repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	const n = 6
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			patron := "PT-0001"
			if i%2 == 1 {
				patron = "PT-0002"
			}
			_, errs[i] = repo.Borrow(ctx, patron, "BK-0002", 7)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, integrity.KindBookUnavailable, integrity.KindOf(err))
	}
	assert.Equal(t, 1, wins)
}

func TestRepository_Borrow_Errors(t *testing.T) {
	_, repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name   string
		patron string
		book   string
		days   int
		kind   integrity.Kind
	}{
		{name: "unknown patron", patron: "PT-0404", book: "BK-0001", days: 14, kind: integrity.KindNotFound},
		{name: "unknown book", patron: "PT-0001", book: "BK-0404", days: 14, kind: integrity.KindNotFound},
		{name: "zero period", patron: "PT-0001", book: "BK-0001", days: 0, kind: integrity.KindValidation},
		{name: "negative period", patron: "PT-0001", book: "BK-0001", days: -3, kind: integrity.KindValidation},
		{name: "period past the limit", patron: "PT-0001", book: "BK-0001", days: MaxLoanPeriodDays + 1, kind: integrity.KindValidation},
		{name: "period past year 9999", patron: "PT-0001", book: "BK-0001", days: 10_000_000, kind: integrity.KindValidation},
		{name: "missing ids", days: 14, kind: integrity.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Borrow(ctx, tt.patron, tt.book, tt.days)
			assert.Equal(t, tt.kind, integrity.KindOf(err))
		})
	}

	history, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRepository_Borrow_LongestPeriodRoundTrips(t *testing.T) {
	_, repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	loan, err := repo.Borrow(ctx, "PT-0001", "BK-0001", MaxLoanPeriodDays)
	require.NoError(t, err)

	outstanding, err := repo.ListOutstanding(ctx)
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	assert.Equal(t, loan.DueDate, outstanding[0].DueDate)
	assert.False(t, outstanding[0].DueDate.IsZero())
}

func TestRepository_Return(t *testing.T) {
	_, repo, clock, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	loan, err := repo.Borrow(ctx, "PT-0001", "BK-0001", 14)
	require.NoError(t, err)

	clock.Advance(5)
	returned, err := repo.Return(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, returned.DateReturned)
	assert.Equal(t, "2024-03-06", returned.DateReturned.String())
	assert.False(t, returned.IsOpen())

	borrowed, err := repo.IsBorrowed(ctx, "BK-0001")
	require.NoError(t, err)
	assert.False(t, borrowed)

	again, err := repo.Borrow(ctx, "PT-0002", "BK-0001", 14)
	require.NoError(t, err)
	assert.Equal(t, "T-0002", again.ID)
	assert.Equal(t, "2024-03-06", again.DateBorrowed.String())
}

func TestRepository_Return_Errors(t *testing.T) {
	_, repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.Return(ctx, "T-0404")
	assert.ErrorIs(t, err, integrity.ErrNotFound)

	loan, err := repo.Borrow(ctx, "PT-0001", "BK-0001", 14)
	require.NoError(t, err)
	_, err = repo.Return(ctx, loan.ID)
	require.NoError(t, err)

	_, err = repo.Return(ctx, loan.ID)
	assert.ErrorIs(t, err, integrity.ErrAlreadyReturned)

	got, err := repo.Get(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DateReturned)
	assert.Equal(t, "2024-03-01", got.DateReturned.String())
}

func TestRepository_ListOutstanding_Order(t *testing.T) {
	_, repo, clock, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repo.Borrow(ctx, "PT-0001", "BK-0001", 14)
	require.NoError(t, err)
	clock.Advance(1)
	second, err := repo.Borrow(ctx, "PT-0002", "BK-0002", 14)
	require.NoError(t, err)

	outstanding, err := repo.ListOutstanding(ctx)
	require.NoError(t, err)
	require.Len(t, outstanding, 2)
	assert.Equal(t, second.ID, outstanding[0].ID)
	assert.Equal(t, "Alan Turing", outstanding[0].PatronName)
	assert.Equal(t, "Emma", outstanding[0].BookTitle)
	assert.Equal(t, first.ID, outstanding[1].ID)

	_, err = repo.Return(ctx, second.ID)
	require.NoError(t, err)

	outstanding, err = repo.ListOutstanding(ctx)
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	assert.Equal(t, first.ID, outstanding[0].ID)

	history, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRepository_ListOutstanding_SameDayTieBreak(t *testing.T) {
	_, repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repo.Borrow(ctx, "PT-0001", "BK-0001", 14)
	require.NoError(t, err)
	second, err := repo.Borrow(ctx, "PT-0001", "BK-0002", 14)
	require.NoError(t, err)

	outstanding, err := repo.ListOutstanding(ctx)
	require.NoError(t, err)
	require.Len(t, outstanding, 2)
	assert.Equal(t, second.ID, outstanding[0].ID)
	assert.Equal(t, first.ID, outstanding[1].ID)
}

func TestRepository_ListOverdue(t *testing.T) {
	_, repo, clock, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	short, err := repo.Borrow(ctx, "PT-0001", "BK-0001", 3)
	require.NoError(t, err)
	_, err = repo.Borrow(ctx, "PT-0002", "BK-0002", 30)
	require.NoError(t, err)

	clock.Advance(10)
	overdue, err := repo.ListOverdue(ctx, repo.Today())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, short.ID, overdue[0].ID)
	assert.True(t, overdue[0].IsOverdue(repo.Today()))

	onDueDate, err := repo.ListOverdue(ctx, entities.NewDate(2024, time.March, 4))
	require.NoError(t, err)
	assert.Empty(t, onDueDate)
}

func TestRepository_PublishesEvents(t *testing.T) {
	db, _, clock, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	bus := events.NewBus(4)
	ch, cancel := bus.Subscribe()
	defer cancel()
	repo := NewRepository(db.Runner(), bus, WithClock(clock.Now))

	loan, err := repo.Borrow(ctx, "PT-0001", "BK-0001", 14)
	require.NoError(t, err)
	_, err = repo.Borrow(ctx, "PT-0002", "BK-0001", 14)
	require.Error(t, err)
	_, err = repo.Return(ctx, loan.ID)
	require.NoError(t, err)

	borrowed := <-ch
	assert.Equal(t, events.ActionBorrowed, borrowed.Action)
	assert.Equal(t, loan.ID, borrowed.EntityID)
	returned := <-ch
	assert.Equal(t, events.ActionReturned, returned.Action)
	assert.Len(t, ch, 0)
}
