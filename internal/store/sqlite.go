package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"FINTRACK_BACK-END/internal/models"
	"FINTRACK_BACK-END/internal/query"
	"FINTRACK_BACK-END/internal/summary"
)

const (
	sqliteDate      = "2006-01-02"
	sqliteTimestamp = "2006-01-02T15:04:05.000000000Z07:00" // fixed width so TEXT order is time order
)

// montant is stored as TEXT to keep decimals exact, so ordering casts it
var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	dateArg:     func(t time.Time) any { return t.Format(sqliteDate) },
	columns: map[string]string{
		query.FieldDate:      "occurred_on",
		query.FieldMontant:   "CAST(montant AS REAL)",
		query.FieldType:      "type",
		query.FieldCategory:  "category",
		query.FieldReference: "reference",
		query.FieldCreatedAt: "created_at",
		query.FieldUpdatedAt: "updated_at",
	},
}

// SQLiteStore implements Store on an embedded SQLite database. It backs local
// development and the test suites.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path (":memory:" for a throwaway database) and applies
// migrations
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one connection: an in-memory database lives and dies with it, and
	// SQLite serialises writers anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Ping checks connectivity
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateUser inserts u; a taken email yields ErrDuplicate
func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.CreatedAt.UTC().Format(sqliteTimestamp), u.UpdatedAt.UTC().Format(sqliteTimestamp))
	if err != nil {
		return fmt.Errorf("insert user: %w", translateSQLiteError(err))
	}
	return nil
}

// UserByEmail looks a user up case-insensitively
func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userWhere(ctx, `email = ? COLLATE NOCASE`, email)
}

// UserByID looks a user up by id
func (s *SQLiteStore) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userWhere(ctx, `id = ?`, id.String())
}

func (s *SQLiteStore) userWhere(ctx context.Context, cond string, arg any) (*models.User, error) {
	var u models.User
	var id, createdAt, updatedAt string
	var firstName, lastName sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, first_name, last_name, created_at, updated_at
		   FROM users WHERE `+cond, arg).
		Scan(&id, &u.Email, &u.PasswordHash, &firstName, &lastName, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("select user: %w", translateSQLiteError(err))
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if firstName.Valid {
		u.FirstName = &firstName.String
	}
	if lastName.Valid {
		u.LastName = &lastName.String
	}
	if u.CreatedAt, err = time.Parse(sqliteTimestamp, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = time.Parse(sqliteTimestamp, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &u, nil
}

// CreateTransaction inserts t; a reused (user, reference) yields ErrDuplicate
func (s *SQLiteStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.UserID.String(), t.Montant.String(), string(t.Type), string(t.Category),
		t.Date.Format(sqliteDate), t.Reference, t.Description,
		t.CreatedAt.UTC().Format(sqliteTimestamp), t.UpdatedAt.UTC().Format(sqliteTimestamp))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", translateSQLiteError(err))
	}
	return nil
}

// OwnedTransaction loads a transaction only if userID owns it
func (s *SQLiteStore) OwnedTransaction(ctx context.Context, id, userID uuid.UUID) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	t, err := scanSQLiteTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("select transaction: %w", translateSQLiteError(err))
	}
	return t, nil
}

// UpdateOwnedTransaction rewrites every mutable column of t, matching on both
// id and owner
func (s *SQLiteStore) UpdateOwnedTransaction(ctx context.Context, t *models.Transaction) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions
		    SET montant = ?, type = ?, category = ?, occurred_on = ?,
		        reference = ?, description = ?, updated_at = ?
		  WHERE id = ? AND user_id = ?`,
		t.Montant.String(), string(t.Type), string(t.Category), t.Date.Format(sqliteDate),
		t.Reference, t.Description, t.UpdatedAt.UTC().Format(sqliteTimestamp),
		t.ID.String(), t.UserID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", translateSQLiteError(err))
	}
	return affectedOne(res)
}

// DeleteOwnedTransaction removes a transaction owned by userID
func (s *SQLiteStore) DeleteOwnedTransaction(ctx context.Context, id, userID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", translateSQLiteError(err))
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTransactions returns one page of the filtered set
func (s *SQLiteStore) ListTransactions(ctx context.Context, q query.Query) ([]models.Transaction, error) {
	stmt, args := sqliteDialect.listSQL(transactionColumns, q)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", translateSQLiteError(err))
	}
	defer rows.Close()

	items := make([]models.Transaction, 0, prealloc(q.Page.Limit))
	for rows.Next() {
		t, err := scanSQLiteTransaction(rows)
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
func (s *SQLiteStore) CountTransactions(ctx context.Context, f query.Filter) (int, error) {
	stmt, args := sqliteDialect.countSQL(f)
	var total int
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count transactions: %w", translateSQLiteError(err))
	}
	return total, nil
}

// SumTransactions groups the filtered set by type and category. SQLite would
// sum the TEXT amounts as floats, so the addition happens in decimal here.
func (s *SQLiteStore) SumTransactions(ctx context.Context, f query.Filter) ([]summary.Bucket, error) {
	where, args := sqliteDialect.where(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, COALESCE(category, ''), montant FROM transactions`+where+` ORDER BY type, category`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sum transactions: %w", translateSQLiteError(err))
	}
	defer rows.Close()

	buckets := make([]summary.Bucket, 0)
	index := map[[2]string]int{}
	for rows.Next() {
		var typ, category, montant string
		if err := rows.Scan(&typ, &category, &montant); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		amount, err := decimal.NewFromString(montant)
		if err != nil {
			return nil, fmt.Errorf("parse montant: %w", err)
		}
		key := [2]string{typ, category}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, summary.Bucket{Type: typ, Category: category, Sum: decimal.Zero})
		}
		buckets[i].Count++
		buckets[i].Sum = buckets[i].Sum.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum transactions: %w", err)
	}
	return buckets, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var id, userID, montant, typ, category, date, createdAt, updatedAt string
	if err := row.Scan(&id, &userID, &montant, &typ, &category, &date,
		&t.Reference, &t.Description, &createdAt, &updatedAt); err != nil {
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
	if t.Date, err = time.Parse(sqliteDate, date); err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	if t.CreatedAt, err = time.Parse(sqliteTimestamp, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(sqliteTimestamp, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	t.Type = models.TransactionType(typ)
	t.Category = models.Category(category)
	return &t, nil
}

func translateSQLiteError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", ErrDuplicate, se.Error())
		case code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE"):
			return fmt.Errorf("%w: %s", ErrDuplicate, se.Error())
		case code&0xff == sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %s", ErrConstraint, se.Error())
		}
	}
	return err
}
