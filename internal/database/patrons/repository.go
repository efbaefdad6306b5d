// Package patrons provides database operations for library members.
//
// Patron IDs are issued as PT-0001, PT-0002, ... A patron with any loan
// history cannot be deleted.
package patrons

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database/integrity"
	"github.com/mrlokans/librarian/internal/database/sequence"
	"github.com/mrlokans/librarian/internal/database/uow"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/events"
)

type row struct {
	ID        string `gorm:"column:patron_id;primaryKey"`
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
	Email     string `gorm:"column:email"`
	Phone     string `gorm:"column:phone_number"`
	Address   string `gorm:"column:address"`
}

func (row) TableName() string { return "patrons" }

func toRow(p entities.Patron) row {
	return row{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
		Address:   p.Address,
	}
}

func (r row) entity() entities.Patron {
	return entities.Patron{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Address:   r.Address,
	}
}

// Repository handles all patron database operations.
type Repository struct {
	runner *uow.Runner
	events events.Publisher
}

// NewRepository creates a new patrons repository. pub may be nil.
func NewRepository(runner *uow.Runner, pub events.Publisher) *Repository {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Repository{runner: runner, events: pub}
}

// Create validates the draft, reserves the next patron ID and inserts the patron.
func (r *Repository) Create(ctx context.Context, draft entities.PatronDraft) (entities.Patron, error) {
	draft = draft.Normalize()
	if err := entities.Validate(draft); err != nil {
		return entities.Patron{}, err
	}

	var created entities.Patron
	err := r.runner.Execute(ctx, func(tx *gorm.DB) error {
		id, err := sequence.Next(tx, sequence.Patron)
		if err != nil {
			return err
		}
		created = draft.Patron(id)
		record := toRow(created)
		return tx.Create(&record).Error
	})
	if err != nil {
		return entities.Patron{}, err
	}

	r.events.Publish(events.New(events.EntityPatron, events.ActionCreated, created.ID))
	return created, nil
}

// Get returns the patron with the given ID.
func (r *Repository) Get(ctx context.Context, id string) (entities.Patron, error) {
	var found row
	err := r.runner.Read(ctx, func(db *gorm.DB) error {
		return db.Where("patron_id = ?", id).Take(&found).Error
	})
	if integrity.Is(err, integrity.KindNotFound) {
		return entities.Patron{}, integrity.NotFoundf("patron %s not found", id)
	}
	if err != nil {
		return entities.Patron{}, err
	}
	return found.entity(), nil
}

// ListAll returns every patron ordered by ID.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Patron, error) {
	var rows []row
	err := r.runner.Read(ctx, func(db *gorm.DB) error {
		return db.Order("LENGTH(patron_id) ASC, patron_id ASC").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	patrons := make([]entities.Patron, 0, len(rows))
	for _, p := range rows {
		patrons = append(patrons, p.entity())
	}
	return patrons, nil
}

// Update replaces every mutable field of the patron identified by p.ID.
func (r *Repository) Update(ctx context.Context, p entities.Patron) (entities.Patron, error) {
	p = p.Normalize()
	if p.ID == "" {
		return entities.Patron{}, integrity.ValidationFields("id is required",
			map[string]string{"id": "is required"})
	}
	if err := entities.Validate(p); err != nil {
		return entities.Patron{}, err
	}

	err := r.runner.Execute(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&row{}).Where("patron_id = ?", p.ID).Updates(map[string]any{
			"first_name":   p.FirstName,
			"last_name":    p.LastName,
			"email":        p.Email,
			"phone_number": p.Phone,
			"address":      p.Address,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return integrity.NotFoundf("patron %s not found", p.ID)
		}
		return nil
	})
	if err != nil {
		return entities.Patron{}, err
	}

	r.events.Publish(events.New(events.EntityPatron, events.ActionUpdated, p.ID))
	return p, nil
}

// Delete removes the patron. It fails while any transaction references them.
func (r *Repository) Delete(ctx context.Context, id string) error {
	err := r.runner.Execute(ctx, func(tx *gorm.DB) error {
		res := tx.Where("patron_id = ?", id).Delete(&row{})
		if res.Error != nil {
			if integrity.Is(integrity.Translate(res.Error), integrity.KindReferentialConstraint) {
				return integrity.ReferentialConstraintf("patron %s has loan history", id).WithCause(res.Error)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return integrity.NotFoundf("patron %s not found", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.events.Publish(events.New(events.EntityPatron, events.ActionDeleted, id))
	return nil
}
