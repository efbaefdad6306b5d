package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/entities"
)

// CategoryStore defines database operations for category management.
type CategoryStore interface {
	Create(ctx context.Context, draft entities.CategoryDraft) (entities.Category, error)
	Get(ctx context.Context, id string) (entities.Category, error)
	ListAll(ctx context.Context) ([]entities.Category, error)
	Update(ctx context.Context, c entities.Category) (entities.Category, error)
	Delete(ctx context.Context, id string) error
}

type CategoriesController struct {
	store CategoryStore
}

func NewCategoriesController(store CategoryStore) *CategoriesController {
	return &CategoriesController{store: store}
}

// ListCategories returns all categories ordered by name
// GET /api/categories
func (cc *CategoriesController) ListCategories(c *gin.Context) {
	categories, err := cc.store.ListAll(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetCategory returns one category
// GET /api/categories/:id
func (cc *CategoriesController) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := cc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "get category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory creates a category. The ID is generated from the name
// unless the body carries one.
// POST /api/categories
func (cc *CategoriesController) CreateCategory(c *gin.Context) {
	var draft entities.CategoryDraft
	if !bindJSON(c, &draft) {
		return
	}

	category, err := cc.store.Create(c.Request.Context(), draft)
	if err != nil {
		respondStoreError(c, err, "create category")
		return
	}
	respondCreated(c, category)
}

// UpdateCategory renames a category
// PUT /api/categories/:id
func (cc *CategoriesController) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if !bindJSON(c, &req) {
		return
	}

	category, err := cc.store.Update(c.Request.Context(), entities.Category{ID: id, Name: req.Name})
	if err != nil {
		respondStoreError(c, err, "update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category that no book references
// DELETE /api/categories/:id
func (cc *CategoriesController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "delete category")
		return
	}
	respondSuccess(c, "category deleted")
}
