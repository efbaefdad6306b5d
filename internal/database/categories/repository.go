// Package categories provides database operations for book categories.
//
// Category IDs are derived from the name ("Fiction" becomes "FICT001") unless
// the caller supplies one. Categories referenced by books cannot be deleted.
//
//	repo := categories.NewRepository(db.Runner(), bus)
//	category, err := repo.Create(ctx, entities.CategoryDraft{Name: "Fiction"})
package categories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database/integrity"
	"github.com/mrlokans/librarian/internal/database/sequence"
	"github.com/mrlokans/librarian/internal/database/uow"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/events"
)

type row struct {
	ID   string `gorm:"column:category_id;primaryKey"`
	Name string `gorm:"column:category_name"`
}

func (row) TableName() string { return "categories" }

func (r row) entity() entities.Category {
	return entities.Category{ID: r.ID, Name: r.Name}
}

// Repository handles all category database operations.
type Repository struct {
	runner *uow.Runner
	events events.Publisher
}

// NewRepository creates a new categories repository. pub may be nil.
func NewRepository(runner *uow.Runner, pub events.Publisher) *Repository {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Repository{runner: runner, events: pub}
}

// Create validates the draft, assigns an ID when none is given and inserts
// the category in one unit of work.
func (r *Repository) Create(ctx context.Context, draft entities.CategoryDraft) (entities.Category, error) {
	draft = draft.Normalize()
	if err := entities.Validate(draft); err != nil {
		return entities.Category{}, err
	}

	var created row
	err := r.runner.Execute(ctx, func(tx *gorm.DB) error {
		id := draft.ID
		if id == "" {
			next, err := sequence.NextCategory(tx, draft.Name)
			if err != nil {
				return err
			}
			id = next
		} else {
			var count int64
			if err := tx.Model(&row{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return integrity.DuplicateKeyf("category %s already exists", id)
			}
			if err := sequence.ObserveCategoryID(tx, id); err != nil {
				return err
			}
		}

		created = row{ID: id, Name: draft.Name}
		if err := tx.Create(&created).Error; err != nil {
			return duplicateName(err, draft.Name)
		}
		return nil
	})
	if err != nil {
		return entities.Category{}, err
	}

	r.events.Publish(events.New(events.EntityCategory, events.ActionCreated, created.ID))
	return created.entity(), nil
}

// Get returns the category with the given ID.
func (r *Repository) Get(ctx context.Context, id string) (entities.Category, error) {
	id = entities.NormalizeCategoryID(id)
	var found row
	err := r.runner.Read(ctx, func(db *gorm.DB) error {
		return db.Where("category_id = ?", id).Take(&found).Error
	})
	if integrity.Is(err, integrity.KindNotFound) {
		return entities.Category{}, integrity.NotFoundf("category %s not found", id)
	}
	if err != nil {
		return entities.Category{}, err
	}
	return found.entity(), nil
}

// ListAll returns every category ordered by name.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Category, error) {
	var rows []row
	err := r.runner.Read(ctx, func(db *gorm.DB) error {
		return db.Order("category_name ASC, category_id ASC").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	categories := make([]entities.Category, 0, len(rows))
	for _, c := range rows {
		categories = append(categories, c.entity())
	}
	return categories, nil
}

// Update renames the category identified by c.ID.
func (r *Repository) Update(ctx context.Context, c entities.Category) (entities.Category, error) {
	c = c.Normalize()
	if c.ID == "" {
		return entities.Category{}, integrity.ValidationFields("id is required",
			map[string]string{"id": "is required"})
	}
	if err := entities.Validate(entities.CategoryDraft{Name: c.Name}); err != nil {
		return entities.Category{}, err
	}

	err := r.runner.Execute(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&row{}).Where("category_id = ?", c.ID).Update("category_name", c.Name)
		if res.Error != nil {
			return duplicateName(res.Error, c.Name)
		}
		if res.RowsAffected == 0 {
			return integrity.NotFoundf("category %s not found", c.ID)
		}
		return nil
	})
	if err != nil {
		return entities.Category{}, err
	}

	r.events.Publish(events.New(events.EntityCategory, events.ActionUpdated, c.ID))
	return c, nil
}

// Delete removes the category. It fails while any book references it.
func (r *Repository) Delete(ctx context.Context, id string) error {
	id = entities.NormalizeCategoryID(id)
	err := r.runner.Execute(ctx, func(tx *gorm.DB) error {
		res := tx.Where("category_id = ?", id).Delete(&row{})
		if res.Error != nil {
			if err := integrity.Translate(res.Error); integrity.Is(err, integrity.KindReferentialConstraint) {
				return integrity.ReferentialConstraintf("category %s still has books", id).WithCause(res.Error)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return integrity.NotFoundf("category %s not found", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.events.Publish(events.New(events.EntityCategory, events.ActionDeleted, id))
	return nil
}

func duplicateName(err error, name string) error {
	translated := integrity.Translate(err)
	typed, ok := integrity.As(translated)
	if !ok || typed.Kind != integrity.KindDuplicateKey {
		return translated
	}
	if strings.Contains(typed.Constraint, "category_name") {
		dup := integrity.DuplicateKeyf("category %q already exists", name).WithCause(err)
		dup.Constraint = typed.Constraint
		return dup
	}
	return translated
}
