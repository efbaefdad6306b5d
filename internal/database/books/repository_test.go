package books

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/integrity"
	"github.com/mrlokans/librarian/internal/entities"
)

func setupTestDB(t *testing.T) (*database.Database, *Repository, func()) {
	db, err := database.Open(database.Options{
		Path:     filepath.Join(t.TempDir(), "test_books.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)

	require.NoError(t, db.DB.Exec(
		"INSERT INTO categories (category_id, category_name) VALUES ('FICT001', 'Fiction'), ('HIST001', 'History')").Error)

	repo := NewRepository(db.Runner(), nil)

	cleanup := func() {
		db.Close()
	}

	return db, repo, cleanup
}

func dune() entities.BookDraft {
	return entities.BookDraft{
		Title:           "Dune",
		Author:          "Frank Herbert",
		ISBN:            "9780441013593",
		PublicationYear: 1965,
		CategoryID:      "FICT001",
	}
}

func TestRepository_Create_ThenListAll(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repo.Create(ctx, dune())
	require.NoError(t, err)
	assert.Equal(t, "BK-0001", first.ID)

	second, err := repo.Create(ctx, entities.BookDraft{
		Title:      "SPQR",
		Author:     "Mary Beard",
		CategoryID: "HIST001",
	})
	require.NoError(t, err)
	assert.Equal(t, "BK-0002", second.ID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "BK-0001", all[0].ID)
	assert.Equal(t, "Fiction", all[0].CategoryName)
	assert.Equal(t, "9780441013593", all[0].ISBN)
	assert.Equal(t, "BK-0002", all[1].ID)
	assert.Equal(t, "History", all[1].CategoryName)
	assert.Empty(t, all[1].ISBN)
}

func TestRepository_Create_SkipsLegacyIDs(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, db.DB.Exec(
		"INSERT INTO books (book_id, title, author, publication_year, category_id) VALUES ('BK-0041', 'Old', 'Someone', 0, 'FICT001')").Error)

	created, err := repo.Create(ctx, dune())
	require.NoError(t, err)
	assert.Equal(t, "BK-0042", created.ID)
}

func TestRepository_Create_WidensPastPadding(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, db.DB.Exec(
		"INSERT INTO books (book_id, title, author, publication_year, category_id) VALUES ('BK-9999', 'Last', 'Someone', 0, 'FICT001')").Error)

	created, err := repo.Create(ctx, dune())
	require.NoError(t, err)
	assert.Equal(t, "BK-10000", created.ID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "BK-9999", all[0].ID)
	assert.Equal(t, "BK-10000", all[1].ID)
}

func TestRepository_Create_ConcurrentIDsAreDistinct(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	const n = 10
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			draft := dune()
			draft.ISBN = ""
			b, err := repo.Create(ctx, draft)
			if assert.NoError(t, err) {
				ids <- b.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestRepository_Create_LowercaseCategoryID(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	draft := dune()
	draft.CategoryID = "fict001"
	b, err := repo.Create(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "FICT001", b.CategoryID)

	got, err := repo.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fiction", got.CategoryName)
}

func TestRepository_Create_Errors(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.Create(ctx, dune())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(d *entities.BookDraft)
		kind   integrity.Kind
	}{
		{
			name:   "duplicate isbn",
			mutate: func(d *entities.BookDraft) {},
			kind:   integrity.KindDuplicateKey,
		},
		{
			name:   "unknown category",
			mutate: func(d *entities.BookDraft) { d.ISBN = ""; d.CategoryID = "NOPE001" },
			kind:   integrity.KindReferentialConstraint,
		},
		{
			name:   "missing title",
			mutate: func(d *entities.BookDraft) { d.Title = "  " },
			kind:   integrity.KindValidation,
		},
		{
			name:   "negative year",
			mutate: func(d *entities.BookDraft) { d.ISBN = ""; d.PublicationYear = -1 },
			kind:   integrity.KindValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := dune()
			tt.mutate(&draft)
			_, err := repo.Create(ctx, draft)
			assert.Equal(t, tt.kind, integrity.KindOf(err))
		})
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRepository_GetAndFindByISBN(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	created, err := repo.Create(ctx, dune())
	require.NoError(t, err)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "Fiction", got.CategoryName)

	byISBN, err := repo.FindByISBN(ctx, " 9780441013593 ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byISBN.ID)

	_, err = repo.Get(ctx, "BK-9999")
	assert.ErrorIs(t, err, integrity.ErrNotFound)
	_, err = repo.FindByISBN(ctx, "0000000000")
	assert.ErrorIs(t, err, integrity.ErrNotFound)
}

func TestRepository_Update(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	created, err := repo.Create(ctx, dune())
	require.NoError(t, err)

	changed := created
	changed.Title = "Dune Messiah"
	changed.ISBN = ""
	changed.CategoryID = "HIST001"
	updated, err := repo.Update(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Empty(t, got.ISBN)
	assert.Equal(t, "History", got.CategoryName)

	missing := changed
	missing.ID = "BK-0404"
	_, err = repo.Update(ctx, missing)
	assert.ErrorIs(t, err, integrity.ErrNotFound)

	badCategory := changed
	badCategory.CategoryID = "NOPE001"
	_, err = repo.Update(ctx, badCategory)
	assert.ErrorIs(t, err, integrity.ErrReferentialConstraint)
}

func TestRepository_Delete(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	loaned, err := repo.Create(ctx, dune())
	require.NoError(t, err)
	draft := dune()
	draft.ISBN = ""
	free, err := repo.Create(ctx, draft)
	require.NoError(t, err)

	require.NoError(t, db.DB.Exec(
		"INSERT INTO patrons (patron_id, first_name, last_name) VALUES ('PT-0001', 'Ada', 'Lovelace')").Error)
	require.NoError(t, db.DB.Exec(
		"INSERT INTO transactions (transaction_id, book_id, patron_id, date_borrowed, due_date, date_returned) VALUES ('T-0001', ?, 'PT-0001', '2024-01-01', '2024-01-15', '2024-01-10')",
		loaned.ID).Error)

	err = repo.Delete(ctx, loaned.ID)
	assert.ErrorIs(t, err, integrity.ErrReferentialConstraint)
	_, err = repo.Get(ctx, loaned.ID)
	assert.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, free.ID))
	_, err = repo.Get(ctx, free.ID)
	assert.ErrorIs(t, err, integrity.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, free.ID), integrity.ErrNotFound)
}
