package store

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Predicate is a boolean condition over product attributes.
// Every store renders it in its own query language.
type Predicate interface {
	// SQL returns the SQL fragment and its arguments. Placeholders are numbered
	// from argIndex ($1, $2, ...) so fragments can be joined into one statement.
	SQL(argIndex int) (string, []any)

	// Scope returns the gorm scope applying the predicate.
	Scope() func(*gorm.DB) *gorm.DB

	// Match evaluates the predicate against a product held in memory.
	Match(p *Product) bool
}

// Spec is an ordered list of predicates combined with logical AND.
// The empty Spec matches every product.
type Spec []Predicate

// And returns a new Spec with p appended. The receiver is left untouched.
func (s Spec) And(p Predicate) Spec {
	next := make(Spec, len(s), len(s)+1)
	copy(next, s)
	return append(next, p)
}

// Where renders the WHERE clause (with a leading space) and its arguments.
// It returns an empty string for the empty Spec.
func (s Spec) Where(argIndex int) (string, []any) {
	if len(s) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(s))
	var args []any
	for _, p := range s {
		fragment, pArgs := p.SQL(argIndex + len(args))
		parts = append(parts, fragment)
		args = append(args, pArgs...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// Scopes returns the gorm scopes of all predicates.
func (s Spec) Scopes() []func(*gorm.DB) *gorm.DB {
	scopes := make([]func(*gorm.DB) *gorm.DB, 0, len(s))
	for _, p := range s {
		scopes = append(scopes, p.Scope())
	}
	return scopes
}

// Match reports whether the product satisfies every predicate.
func (s Spec) Match(p *Product) bool {
	for _, pred := range s {
		if !pred.Match(p) {
			return false
		}
	}
	return true
}

// NameIs matches products with exactly this name.
type NameIs struct {
	Name string
}

func (n NameIs) SQL(argIndex int) (string, []any) {
	return fmt.Sprintf("name = $%d", argIndex), []any{n.Name}
}

func (n NameIs) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("name = ?", n.Name)
	}
}

func (n NameIs) Match(p *Product) bool {
	return p.Name == n.Name
}

// CategoryIs matches products of one category.
type CategoryIs struct {
	ID int64
}

func (c CategoryIs) SQL(argIndex int) (string, []any) {
	return fmt.Sprintf("category_id = $%d", argIndex), []any{c.ID}
}

func (c CategoryIs) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("category_id = ?", c.ID)
	}
}

func (c CategoryIs) Match(p *Product) bool {
	return p.CategoryID == c.ID
}

// ManufacturerIn matches products made by any manufacturer of the set.
type ManufacturerIn struct {
	IDs []int64
}

func (m ManufacturerIn) SQL(argIndex int) (string, []any) {
	return fmt.Sprintf("manufacturer_id = ANY($%d)", argIndex), []any{m.IDs}
}

func (m ManufacturerIn) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("manufacturer_id IN ?", m.IDs)
	}
}

func (m ManufacturerIn) Match(p *Product) bool {
	for _, id := range m.IDs {
		if p.ManufacturerID == id {
			return true
		}
	}
	return false
}

// PriceBetween matches products priced within [Min, Max], both bounds inclusive.
type PriceBetween struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func (r PriceBetween) SQL(argIndex int) (string, []any) {
	return fmt.Sprintf("price BETWEEN $%d AND $%d", argIndex, argIndex+1), []any{r.Min, r.Max}
}

func (r PriceBetween) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("price BETWEEN ? AND ?", r.Min, r.Max)
	}
}

func (r PriceBetween) Match(p *Product) bool {
	return p.Price.GreaterThanOrEqual(r.Min) && p.Price.LessThanOrEqual(r.Max)
}

// ColorIs matches products of a color, ignoring case.
type ColorIs struct {
	Color string
}

func (c ColorIs) SQL(argIndex int) (string, []any) {
	return fmt.Sprintf("lower(color) = lower($%d)", argIndex), []any{c.Color}
}

func (c ColorIs) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("lower(color) = lower(?)", c.Color)
	}
}

func (c ColorIs) Match(p *Product) bool {
	return strings.EqualFold(p.Color, c.Color)
}

// Keyword matches products whose name or description contains Text, ignoring case.
type Keyword struct {
	Text string
}

func (k Keyword) SQL(argIndex int) (string, []any) {
	return fmt.Sprintf("(name ILIKE $%[1]d OR description ILIKE $%[1]d)", argIndex), []any{likePattern(k.Text)}
}

func (k Keyword) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		pattern := likePattern(k.Text)
		return db.Where("(name ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}
}

func (k Keyword) Match(p *Product) bool {
	needle := strings.ToLower(k.Text)
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle)
}

// likeEscaper escapes the LIKE wildcards so the keyword is matched literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
