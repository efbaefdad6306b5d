package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/entities"
)

// PatronStore defines database operations for library members.
type PatronStore interface {
	Create(ctx context.Context, draft entities.PatronDraft) (entities.Patron, error)
	Get(ctx context.Context, id string) (entities.Patron, error)
	ListAll(ctx context.Context) ([]entities.Patron, error)
	Update(ctx context.Context, p entities.Patron) (entities.Patron, error)
	Delete(ctx context.Context, id string) error
}

type PatronsController struct {
	store PatronStore
}

func NewPatronsController(store PatronStore) *PatronsController {
	return &PatronsController{store: store}
}

// ListPatrons returns all patrons ordered by ID
// GET /api/patrons
func (pc *PatronsController) ListPatrons(c *gin.Context) {
	patrons, err := pc.store.ListAll(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "list patrons")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"patrons": patrons,
		"count":   len(patrons),
	})
}

// GetPatron returns one patron
// GET /api/patrons/:id
func (pc *PatronsController) GetPatron(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	patron, err := pc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "get patron")
		return
	}
	c.JSON(http.StatusOK, patron)
}

// CreatePatron registers a patron
// POST /api/patrons
func (pc *PatronsController) CreatePatron(c *gin.Context) {
	var draft entities.PatronDraft
	if !bindJSON(c, &draft) {
		return
	}

	patron, err := pc.store.Create(c.Request.Context(), draft)
	if err != nil {
		respondStoreError(c, err, "create patron")
		return
	}
	respondCreated(c, patron)
}

// UpdatePatron replaces a patron's contact details
// PUT /api/patrons/:id
func (pc *PatronsController) UpdatePatron(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var draft entities.PatronDraft
	if !bindJSON(c, &draft) {
		return
	}

	patron, err := pc.store.Update(c.Request.Context(), draft.Patron(id))
	if err != nil {
		respondStoreError(c, err, "update patron")
		return
	}
	c.JSON(http.StatusOK, patron)
}

// DeletePatron removes a patron with no loan history
// DELETE /api/patrons/:id
func (pc *PatronsController) DeletePatron(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := pc.store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "delete patron")
		return
	}
	respondSuccess(c, "patron deleted")
}
