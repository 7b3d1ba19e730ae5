// Package store persists users and transactions. Every transaction lookup,
// update and delete carries the owner in its WHERE clause so a row owned by
// someone else is indistinguishable from a missing one.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"FINTRACK_BACK-END/internal/models"
	"FINTRACK_BACK-END/internal/query"
	"FINTRACK_BACK-END/internal/summary"
)

var (
	// ErrNotFound is returned when no row matches, including rows owned by
	// another user
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on a unique index violation
	ErrDuplicate = errors.New("duplicate record")
	// ErrConstraint is returned when a row fails a CHECK or type constraint
	ErrConstraint = errors.New("constraint violation")
)

// UserStore persists user accounts
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TransactionStore persists transactions
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	OwnedTransaction(ctx context.Context, id, userID uuid.UUID) (*models.Transaction, error)
	UpdateOwnedTransaction(ctx context.Context, t *models.Transaction) error
	DeleteOwnedTransaction(ctx context.Context, id, userID uuid.UUID) error
	ListTransactions(ctx context.Context, q query.Query) ([]models.Transaction, error)
	CountTransactions(ctx context.Context, f query.Filter) (int, error)
	SumTransactions(ctx context.Context, f query.Filter) ([]summary.Bucket, error)
}

// Store is a full backend
type Store interface {
	UserStore
	TransactionStore
	Ping(ctx context.Context) error
	Close() error
}

const transactionColumns = `id, user_id, montant, type, category, occurred_on, reference, description, created_at, updated_at`

// dialect captures what differs between the SQL backends when building
// filter clauses
type dialect struct {
	placeholder func(n int) string
	dateArg     func(t time.Time) any
	columns     map[string]string
}

func (d dialect) where(f query.Filter) (string, []any) {
	conds := make([]string, 0, 5)
	args := make([]any, 0, 5)
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, d.placeholder(len(args))))
	}

	add("user_id = %s", f.UserID.String())
	if f.Type != "" {
		add("type = %s", f.Type)
	}
	if f.Category != "" {
		add("category = %s", f.Category)
	}
	if f.From != nil {
		add("occurred_on >= %s", d.dateArg(*f.From))
	}
	if f.To != nil {
		add("occurred_on <= %s", d.dateArg(*f.To))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (d dialect) orderBy(sort []query.SortField) string {
	terms := make([]string, 0, len(sort)+1)
	for _, s := range sort {
		col, ok := d.columns[s.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
	}
	if len(terms) == 0 {
		terms = append(terms, d.columns[query.FieldDate]+" DESC")
	}
	terms = append(terms, "id ASC")
	return " ORDER BY " + strings.Join(terms, ", ")
}

// listSQL builds the paged SELECT for q
func (d dialect) listSQL(selectCols string, q query.Query) (string, []any) {
	where, args := d.where(q.Filter)
	args = append(args, q.Page.Limit, q.Page.Offset)
	sql := "SELECT " + selectCols + " FROM transactions" + where + d.orderBy(q.Sort) +
		fmt.Sprintf(" LIMIT %s OFFSET %s", d.placeholder(len(args)-1), d.placeholder(len(args)))
	return sql, args
}

func (d dialect) countSQL(f query.Filter) (string, []any) {
	where, args := d.where(f)
	return "SELECT COUNT(1) FROM transactions" + where, args
}

// prealloc bounds a slice capacity hint; page limits are not capped
func prealloc(limit int) int {
	if limit < 0 {
		return 0
	}
	return min(limit, 100)
}
