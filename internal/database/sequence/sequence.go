// Package sequence issues human-readable sequential identifiers such as
// "BK-0001" or "FICT003".
//
// Each (entity, prefix) pair owns a durable counter row in id_sequences. The
// counter is advanced with an UPDATE inside the caller's transaction, so the
// number is reserved by the same unit of work that inserts the row and two
// concurrent creates can never compute the same value. A counter that does
// not exist yet is seeded from the highest numeric suffix already present in
// the entity table, which keeps databases populated before counters existed
// working.
package sequence

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database/integrity"
)

// CountersTable holds one row per (entity, prefix) counter.
const CountersTable = "id_sequences"

// Scheme describes how IDs for one entity kind look and where they live.
type Scheme struct {
	Entity string
	Table  string
	Column string
	// Prefix is fixed for most entities; empty means it is derived per call.
	Prefix string
	// Width is the minimum number of digits. Larger numbers widen the ID.
	Width int
}

var (
	Book        = Scheme{Entity: "book", Table: "books", Column: "book_id", Prefix: "BK-", Width: 4}
	Patron      = Scheme{Entity: "patron", Table: "patrons", Column: "patron_id", Prefix: "PT-", Width: 4}
	Transaction = Scheme{Entity: "transaction", Table: "transactions", Column: "transaction_id", Prefix: "T-", Width: 4}
	Category    = Scheme{Entity: "category", Table: "categories", Column: "category_id", Width: 3}
)

// categoryPrefixLetters is how many letters of a category name form its prefix.
const categoryPrefixLetters = 4

type counter struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value"`
}

func (counter) TableName() string { return CountersTable }

// Next reserves and returns the next ID for s. tx must be a transaction.
func Next(tx *gorm.DB, s Scheme) (string, error) {
	if s.Prefix == "" {
		return "", fmt.Errorf("sequence %s needs an explicit prefix", s.Entity)
	}
	return NextWithPrefix(tx, s, s.Prefix)
}

// NextCategory reserves the next ID for a category with the given name.
func NextCategory(tx *gorm.DB, name string) (string, error) {
	prefix, err := CategoryPrefix(name)
	if err != nil {
		return "", err
	}
	return NextWithPrefix(tx, Category, prefix)
}

// NextWithPrefix reserves the next number for (s.Entity, prefix).
func NextWithPrefix(tx *gorm.DB, s Scheme, prefix string) (string, error) {
	key := counterKey(s, prefix)
	if err := ensureCounter(tx, s, prefix, key); err != nil {
		return "", err
	}

	res := tx.Model(&counter{}).Where("name = ?", key).
		UpdateColumn("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return "", fmt.Errorf("advance sequence %s: %w", key, res.Error)
	}

	var c counter
	if err := tx.Where("name = ?", key).Take(&c).Error; err != nil {
		return "", fmt.Errorf("read sequence %s: %w", key, err)
	}
	return Format(prefix, c.Value, s.Width), nil
}

// Observe moves the counter for (s.Entity, prefix) to at least n, so an ID
// chosen by the caller is never issued again by Next.
func Observe(tx *gorm.DB, s Scheme, prefix string, n int64) error {
	key := counterKey(s, prefix)
	if err := ensureCounter(tx, s, prefix, key); err != nil {
		return err
	}
	err := tx.Model(&counter{}).Where("name = ? AND value < ?", key, n).
		UpdateColumn("value", n).Error
	if err != nil {
		return fmt.Errorf("observe sequence %s: %w", key, err)
	}
	return nil
}

// ObserveCategoryID advances the category counter when id has the generated
// shape (letters followed by digits). Other IDs are left alone.
func ObserveCategoryID(tx *gorm.DB, id string) error {
	prefix, n, ok := SplitID(id)
	if !ok {
		return nil
	}
	return Observe(tx, Category, prefix, n)
}

func ensureCounter(tx *gorm.DB, s Scheme, prefix, key string) error {
	var count int64
	if err := tx.Model(&counter{}).Where("name = ?", key).Count(&count).Error; err != nil {
		return fmt.Errorf("look up sequence %s: %w", key, err)
	}
	if count > 0 {
		return nil
	}

	seed, err := highestExisting(tx, s, prefix)
	if err != nil {
		return err
	}

	// A concurrent unit of work may have created the row in the meantime.
	err = tx.Exec("INSERT INTO "+CountersTable+" (name, value) VALUES (?, ?) ON CONFLICT (name) DO NOTHING",
		key, seed).Error
	if err != nil {
		return fmt.Errorf("create sequence %s: %w", key, err)
	}
	return nil
}

func highestExisting(tx *gorm.DB, s Scheme, prefix string) (int64, error) {
	var ids []string
	err := tx.Table(s.Table).Where(s.Column+" LIKE ?", prefix+"%").Pluck(s.Column, &ids).Error
	if err != nil {
		return 0, fmt.Errorf("scan existing %s ids: %w", s.Entity, err)
	}

	var highest int64
	for _, id := range ids {
		if n, ok := ParseSuffix(id, prefix); ok && n > highest {
			highest = n
		}
	}
	return highest, nil
}

func counterKey(s Scheme, prefix string) string {
	return s.Entity + ":" + prefix
}

// Format renders prefix + number zero-padded to width digits.
func Format(prefix string, n int64, width int) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// ParseSuffix returns the number after prefix when the rest of id is all digits.
func ParseSuffix(id, prefix string) (int64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	digits := id[len(prefix):]
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SplitID splits an ID such as "FICT012" into its letter prefix and number.
func SplitID(id string) (string, int64, bool) {
	i := strings.IndexFunc(id, unicode.IsDigit)
	if i <= 0 {
		return "", 0, false
	}
	prefix := id[:i]
	for _, r := range prefix {
		if !unicode.IsLetter(r) {
			return "", 0, false
		}
	}
	n, ok := ParseSuffix(id, prefix)
	return prefix, n, ok
}

// CategoryPrefix returns up to the first four letters of name, upper-cased.
// Non-letters are skipped, so "Sci-Fi" becomes "SCIF".
func CategoryPrefix(name string) (string, error) {
	var b strings.Builder
	letters := 0
	for _, r := range name {
		if letters == categoryPrefixLetters {
			break
		}
		if !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		letters++
	}
	if letters == 0 || !utf8.ValidString(name) {
		return "", integrity.ValidationFields("category name must contain at least one letter",
			map[string]string{"name": "must contain at least one letter"})
	}
	return b.String(), nil
}
