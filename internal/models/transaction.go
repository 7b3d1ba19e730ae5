package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is income or expense
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Category is one of a closed set of labels
type Category string

const (
	CategorySalary    Category = "salary"
	CategoryFreelance Category = "freelance"
	CategoryFood      Category = "food"
	CategoryTraining  Category = "training"
	CategoryEducation Category = "education"
	CategoryMedical   Category = "medical"
	CategoryTax       Category = "tax"

	// CategoryOther only appears in summaries, for rows without a label
	CategoryOther Category = "other"
)

// Categories lists the categories a transaction may carry
var Categories = []Category{
	CategorySalary,
	CategoryFreelance,
	CategoryFood,
	CategoryTraining,
	CategoryEducation,
	CategoryMedical,
	CategoryTax,
}

// Transaction represents a single income or expense owned by a user
type Transaction struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"user" db:"user_id"`
	Montant     decimal.Decimal `json:"montant" db:"montant"`
	Type        TransactionType `json:"type" db:"type"`
	Category    Category        `json:"category" db:"category"`
	Date        time.Time       `json:"date" db:"occurred_on"`
	Reference   string          `json:"reference" db:"reference"`
	Description string          `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

var (
	ErrNegativeAmount   = errors.New("montant must be greater than or equal to 0")
	ErrInvalidType      = errors.New("type must be income or expense")
	ErrInvalidCategory  = errors.New("category must be one of salary, freelance, food, training, education, medical, tax")
	ErrMissingReference = errors.New("reference is required")
	ErrMissingDate      = errors.New("date is required")
	ErrMissingUser      = errors.New("user is required")
)

// ParseType lower-cases and trims s; ok reports whether the result is known
func ParseType(s string) (t TransactionType, ok bool) {
	t = TransactionType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Valid reports whether t is a known type
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// ParseCategory lower-cases and trims s; ok reports whether the result is known
func ParseCategory(s string) (c Category, ok bool) {
	c = Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Valid reports whether c belongs to the closed category set
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Normalize trims free-text fields and canonicalises enum casing. Unknown
// enum values are kept for Validate to reject.
func (t *Transaction) Normalize() {
	t.Type, _ = ParseType(string(t.Type))
	t.Category, _ = ParseCategory(string(t.Category))
	t.Reference = strings.TrimSpace(t.Reference)
	t.Description = strings.TrimSpace(t.Description)
}

// Validate checks the invariants every stored transaction must satisfy
func (t *Transaction) Validate() error {
	if t.UserID == uuid.Nil {
		return ErrMissingUser
	}
	if t.Montant.IsNegative() {
		return ErrNegativeAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Category.Valid() {
		return ErrInvalidCategory
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	if t.Reference == "" {
		return ErrMissingReference
	}
	return nil
}
