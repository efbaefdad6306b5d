package entities

import "strings"

// Category groups books. Its ID is derived from the name ("FICT001") unless
// the caller supplies one.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryDraft is the input for creating a category.
type CategoryDraft struct {
	ID   string `json:"id,omitempty" validate:"omitempty,max=32"`
	Name string `json:"name" validate:"required,max=100"`
}

// Book is one physical item in the catalog.
type Book struct {
	ID              string `json:"id"`
	Title           string `json:"title" validate:"required,max=512"`
	Author          string `json:"author" validate:"required,max=256"`
	ISBN            string `json:"isbn,omitempty" validate:"max=20"`
	PublicationYear int    `json:"publication_year" validate:"gte=0,lte=9999"`
	CategoryID      string `json:"category_id" validate:"required"`

	// CategoryName is filled in by listings and ignored on writes.
	CategoryName string `json:"category_name,omitempty" validate:"-"`
}

// BookDraft is the input for creating a book.
type BookDraft struct {
	Title           string `json:"title" validate:"required,max=512"`
	Author          string `json:"author" validate:"required,max=256"`
	ISBN            string `json:"isbn,omitempty" validate:"max=20"`
	PublicationYear int    `json:"publication_year" validate:"gte=0,lte=9999"`
	CategoryID      string `json:"category_id" validate:"required"`
}

// Patron is a registered library member.
type Patron struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone,omitempty" validate:"max=32"`
	Address   string `json:"address,omitempty" validate:"max=512"`
}

// FullName is the display name used in loan listings.
func (p Patron) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PatronDraft is the input for registering a patron.
type PatronDraft struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone,omitempty" validate:"max=32"`
	Address   string `json:"address,omitempty" validate:"max=512"`
}

// Transaction is a loan of one book to one patron. DateReturned is nil
// while the loan is open.
type Transaction struct {
	ID           string `json:"id"`
	BookID       string `json:"book_id"`
	PatronID     string `json:"patron_id"`
	DateBorrowed Date   `json:"date_borrowed"`
	DueDate      Date   `json:"due_date"`
	DateReturned *Date  `json:"date_returned"`

	// Filled in by listings that join patrons and books.
	PatronName string `json:"patron_name,omitempty"`
	BookTitle  string `json:"book_title,omitempty"`
}

// IsOpen reports whether the book is still out on this loan.
func (t Transaction) IsOpen() bool {
	return t.DateReturned == nil
}

// IsOverdue reports whether the loan is open past its due date.
func (t Transaction) IsOverdue(today Date) bool {
	return t.IsOpen() && t.DueDate.Before(today)
}
