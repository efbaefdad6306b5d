package entities

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/librarian/internal/database/integrity"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Report JSON field names so messages match what API clients send.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks struct tags on v after trimming is done by the caller.
// Failures come back as an integrity validation error with one message per field.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return integrity.Validationf("invalid input: %v", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return integrity.ValidationFields(summarize(verrs), fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

func summarize(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" "+fieldMessage(fe))
	}
	return strings.Join(parts, "; ")
}

// ParsePublicationYear converts form input to a year. Empty input means 0
// (unknown); anything non-numeric is a validation error.
func ParsePublicationYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, integrity.ValidationFields("publication_year must be a number",
			map[string]string{"publication_year": "must be a number"})
	}
	return year, nil
}

// NormalizeCategoryID is the canonical form of a category ID. Category IDs
// are stored upper-cased, so every lookup goes through this too.
func NormalizeCategoryID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Normalize returns d with surrounding whitespace removed from every field.
func (d CategoryDraft) Normalize() CategoryDraft {
	d.ID = NormalizeCategoryID(d.ID)
	d.Name = strings.TrimSpace(d.Name)
	return d
}

func (c Category) Normalize() Category {
	c.ID = NormalizeCategoryID(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	return c
}

func (d BookDraft) Normalize() BookDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	d.ISBN = strings.TrimSpace(d.ISBN)
	d.CategoryID = NormalizeCategoryID(d.CategoryID)
	return d
}

func (b Book) Normalize() Book {
	b.ID = strings.TrimSpace(b.ID)
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.CategoryID = NormalizeCategoryID(b.CategoryID)
	b.CategoryName = ""
	return b
}

func (d PatronDraft) Normalize() PatronDraft {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	return d
}

func (p Patron) Normalize() Patron {
	p.ID = strings.TrimSpace(p.ID)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	return p
}

// Book returns the book described by the draft with the given ID.
func (d BookDraft) Book(id string) Book {
	return Book{
		ID:              id,
		Title:           d.Title,
		Author:          d.Author,
		ISBN:            d.ISBN,
		PublicationYear: d.PublicationYear,
		CategoryID:      d.CategoryID,
	}
}

// Patron returns the patron described by the draft with the given ID.
func (d PatronDraft) Patron(id string) Patron {
	return Patron{
		ID:        id,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Phone:     d.Phone,
		Address:   d.Address,
	}
}
