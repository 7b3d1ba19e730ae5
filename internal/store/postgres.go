package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"FINTRACK_BACK-END/internal/models"
	"FINTRACK_BACK-END/internal/query"
	"FINTRACK_BACK-END/internal/summary"
)

// Postgres error codes translated by this package
const (
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgInvalidTextRepr     = "22P02"
	pgForeignKeyViolation = "23503"
	pgDatetimeOverflow    = "22008"
)

var postgresDialect = dialect{
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	dateArg:     func(t time.Time) any { return t.Format("2006-01-02") },
	columns: map[string]string{
		query.FieldDate:      "occurred_on",
		query.FieldMontant:   "montant",
		query.FieldType:      "type",
		query.FieldCategory:  "category",
		query.FieldReference: "reference",
		query.FieldCreatedAt: "created_at",
		query.FieldUpdatedAt: "updated_at",
	},
}

// pgSelectColumns casts montant to text so it scans exactly into a decimal
// under both the simple and the extended protocol
const pgSelectColumns = `id::text, user_id::text, montant::text, type, category, occurred_on, reference, description, created_at, updated_at`

// PostgresStore implements Store on a pgx connection pool
type PostgresStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewPostgresStore wraps pool. queryTimeout bounds every statement when > 0.
func NewPostgresStore(pool *pgxpool.Pool, queryTimeout time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, queryTimeout: queryTimeout}
}

func (s *PostgresStore) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return context.WithCancel(ctx)
}

// Ping checks connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// CreateUser inserts u; a taken email yields ErrDuplicate
func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID.String(), u.Email, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", translatePgError(err))
	}
	return nil
}

// UserByEmail looks a user up case-insensitively
func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userWhere(ctx, `lower(email) = lower($1)`, email)
}

// UserByID looks a user up by id
func (s *PostgresStore) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userWhere(ctx, `id = $1`, id.String())
}

func (s *PostgresStore) userWhere(ctx context.Context, cond string, arg any) (*models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var u models.User
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, email, password_hash, first_name, last_name, created_at, updated_at
		   FROM users WHERE `+cond, arg).
		Scan(&id, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("select user: %w", translatePgError(err))
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	return &u, nil
}

// CreateTransaction inserts t; a reused (user, reference) yields ErrDuplicate
func (s *PostgresStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID.String(), t.UserID.String(), t.Montant.String(), string(t.Type), string(t.Category),
		t.Date.Format("2006-01-02"), t.Reference, t.Description, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", translatePgError(err))
	}
	return nil
}

// OwnedTransaction loads a transaction only if userID owns it
func (s *PostgresStore) OwnedTransaction(ctx context.Context, id, userID uuid.UUID) (*models.Transaction, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT `+pgSelectColumns+` FROM transactions WHERE id = $1 AND user_id = $2`,
		id.String(), userID.String())
	t, err := scanPgTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("select transaction: %w", translatePgError(err))
	}
	return t, nil
}

// UpdateOwnedTransaction rewrites every mutable column of t, matching on both
// id and owner
func (s *PostgresStore) UpdateOwnedTransaction(ctx context.Context, t *models.Transaction) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`UPDATE transactions
		    SET montant = $1, type = $2, category = $3, occurred_on = $4,
		        reference = $5, description = $6, updated_at = $7
		  WHERE id = $8 AND user_id = $9`,
		t.Montant.String(), string(t.Type), string(t.Category), t.Date.Format("2006-01-02"),
		t.Reference, t.Description, t.UpdatedAt, t.ID.String(), t.UserID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOwnedTransaction removes a transaction owned by userID
func (s *PostgresStore) DeleteOwnedTransaction(ctx context.Context, id, userID uuid.UUID) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTransactions returns one page of the filtered set
func (s *PostgresStore) ListTransactions(ctx context.Context, q query.Query) ([]models.Transaction, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	sql, args := postgresDialect.listSQL(pgSelectColumns, q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", translatePgError(err))
	}
	defer rows.Close()

	items := make([]models.Transaction, 0, prealloc(q.Page.Limit))
	for rows.Next() {
		t, err := scanPgTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

// CountTransactions counts the filtered set
func (s *PostgresStore) CountTransactions(ctx context.Context, f query.Filter) (int, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	sql, args := postgresDialect.countSQL(f)
	var total int
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count transactions: %w", translatePgError(err))
	}
	return total, nil
}

// SumTransactions groups the filtered set by type and category
func (s *PostgresStore) SumTransactions(ctx context.Context, f query.Filter) ([]summary.Bucket, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	where, args := postgresDialect.where(f)
	rows, err := s.pool.Query(ctx,
		`SELECT type, COALESCE(category, ''), COUNT(1), COALESCE(SUM(montant), 0)::text
		   FROM transactions`+where+`
		  GROUP BY type, category`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum transactions: %w", translatePgError(err))
	}
	defer rows.Close()

	buckets := make([]summary.Bucket, 0)
	for rows.Next() {
		var b summary.Bucket
		var sum string
		if err := rows.Scan(&b.Type, &b.Category, &b.Count, &sum); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		if b.Sum, err = decimal.NewFromString(sum); err != nil {
			return nil, fmt.Errorf("parse bucket sum: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum transactions: %w", err)
	}
	return buckets, nil
}

func scanPgTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	var id, userID, montant, typ, category string
	if err := row.Scan(&id, &userID, &montant, &typ, &category, &t.Date,
		&t.Reference, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if t.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if t.Montant, err = decimal.NewFromString(montant); err != nil {
		return nil, fmt.Errorf("parse montant: %w", err)
	}
	t.Type = models.TransactionType(typ)
	t.Category = models.Category(category)
	t.Date = t.Date.UTC()
	return &t, nil
}

func translatePgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case pgCheckViolation, pgNotNullViolation, pgInvalidTextRepr, pgForeignKeyViolation, pgDatetimeOverflow:
			return fmt.Errorf("%w: %s", ErrConstraint, strings.TrimSpace(pgErr.Message))
		}
	}
	return err
}
