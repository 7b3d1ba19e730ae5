// Package services holds the application use cases. Services translate
// store failures into apperror kinds so handlers only map kinds to statuses.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"FINTRACK_BACK-END/internal/apperror"
	"FINTRACK_BACK-END/internal/events"
	"FINTRACK_BACK-END/internal/logger"
	"FINTRACK_BACK-END/internal/models"
	"FINTRACK_BACK-END/internal/normalize"
	"FINTRACK_BACK-END/internal/query"
	"FINTRACK_BACK-END/internal/store"
	"FINTRACK_BACK-END/internal/summary"
)

const (
	msgDuplicateReference = "reference already exists for this user"
	msgNotFound           = "transaction not found"
	msgInvalidID          = "invalid transaction id"
	msgInvalidDate        = "invalid date, expected format " + normalize.DayMonthYear
	msgInvalidAmount      = "invalid amount"
)

// CreateInput is a create request as received from the client. Montant is
// left untyped so both JSON numbers and strings such as "12,50" are accepted.
type CreateInput struct {
	Montant     any
	Type        string
	Category    string
	Date        string
	Reference   string
	Description *string
}

// UpdateInput carries the fields to change; nil means unchanged
type UpdateInput struct {
	Montant     any
	Type        *string
	Category    *string
	Date        *string
	Reference   *string
	Description *string
}

// ListResult is one page of a filtered listing
type ListResult struct {
	Total        int
	Page         int
	Pages        int
	Transactions []models.Transaction
}

// TransactionService runs every transaction operation on behalf of a caller
type TransactionService struct {
	store     store.TransactionStore
	builder   query.Builder
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewTransactionService wires a service. A nil publisher drops events.
func NewTransactionService(st store.TransactionStore, builder query.Builder, pub events.Publisher, l *slog.Logger) *TransactionService {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if l == nil {
		l = slog.Default()
	}
	return &TransactionService{
		store:     st,
		builder:   builder,
		publisher: pub,
		logger:    logger.WithComponent(l, logger.ComponentTransaction),
		now:       time.Now,
	}
}

// Create validates in and stores it as a transaction owned by userID
func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*models.Transaction, error) {
	if missing := in.missing(); len(missing) > 0 {
		return nil, apperror.Validation(strings.Join(missing, ", ") + " required")
	}

	date, err := normalize.Date(in.Date)
	if err != nil {
		return nil, apperror.Validation(msgInvalidDate)
	}
	amount, err := normalize.Amount(in.Montant)
	if err != nil {
		return nil, apperror.Validation(msgInvalidAmount)
	}

	now := s.now().UTC()
	t := &models.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Montant:   amount,
		Type:      models.TransactionType(in.Type),
		Category:  models.Category(in.Category),
		Date:      date,
		Reference: in.Reference,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return nil, s.storeError("create transaction", err)
	}

	s.publish(ctx, events.TransactionCreated, t)
	return t, nil
}

func (in CreateInput) missing() []string {
	var out []string
	if in.Montant == nil {
		out = append(out, "montant")
	} else if s, ok := in.Montant.(string); ok && strings.TrimSpace(s) == "" {
		out = append(out, "montant")
	}
	for _, f := range []struct{ name, value string }{
		{"type", in.Type},
		{"category", in.Category},
		{"date", in.Date},
		{"reference", in.Reference},
	} {
		if strings.TrimSpace(f.value) == "" {
			out = append(out, f.name)
		}
	}
	return out
}

// List returns one page of the caller's transactions and the filtered total
func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, p query.Params) (*ListResult, error) {
	q, err := s.builder.Build(p, userID, s.now())
	if err != nil {
		return nil, s.queryError(err)
	}

	var (
		items []models.Transaction
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.ListTransactions(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountTransactions(gctx, q.Filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeError("list transactions", err)
	}

	return &ListResult{
		Total:        total,
		Page:         q.Page.Number,
		Pages:        q.Page.Pages(total),
		Transactions: items,
	}, nil
}

// Get returns a transaction owned by userID
func (s *TransactionService) Get(ctx context.Context, userID uuid.UUID, rawID string) (*models.Transaction, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	t, err := s.store.OwnedTransaction(ctx, id, userID)
	if err != nil {
		return nil, s.storeError("get transaction", err)
	}
	return t, nil
}

// Update merges in into a transaction owned by userID and re-validates the
// whole record before writing it
func (s *TransactionService) Update(ctx context.Context, userID uuid.UUID, rawID string, in UpdateInput) (*models.Transaction, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	var date *time.Time
	if in.Date != nil {
		d, err := normalize.Date(*in.Date)
		if err != nil {
			return nil, apperror.Validation(msgInvalidDate)
		}
		date = &d
	}
	var amount *decimal.Decimal
	if in.Montant != nil {
		a, err := normalize.Amount(in.Montant)
		if err != nil {
			return nil, apperror.Validation(msgInvalidAmount)
		}
		amount = &a
	}

	t, err := s.store.OwnedTransaction(ctx, id, userID)
	if err != nil {
		return nil, s.storeError("load transaction", err)
	}

	if amount != nil {
		t.Montant = *amount
	}
	if date != nil {
		t.Date = *date
	}
	if in.Type != nil {
		t.Type = models.TransactionType(*in.Type)
	}
	if in.Category != nil {
		t.Category = models.Category(*in.Category)
	}
	if in.Reference != nil {
		t.Reference = *in.Reference
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	t.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateOwnedTransaction(ctx, t); err != nil {
		return nil, s.storeError("update transaction", err)
	}

	s.publish(ctx, events.TransactionUpdated, t)
	return t, nil
}

// Delete removes a transaction owned by userID
func (s *TransactionService) Delete(ctx context.Context, userID uuid.UUID, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteOwnedTransaction(ctx, id, userID); err != nil {
		return s.storeError("delete transaction", err)
	}

	s.publish(ctx, events.TransactionDeleted, &models.Transaction{ID: id, UserID: userID})
	return nil
}

// Summary aggregates the caller's transactions matching p. Paging and sort
// parameters are ignored.
func (s *TransactionService) Summary(ctx context.Context, userID uuid.UUID, p query.Params) (summary.Summary, error) {
	f, err := query.BuildFilter(p, userID, s.now())
	if err != nil {
		return summary.Summary{}, s.queryError(err)
	}
	buckets, err := s.store.SumTransactions(ctx, f)
	if err != nil {
		return summary.Summary{}, s.storeError("summarize transactions", err)
	}
	return summary.Summarize(buckets), nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperror.MalformedID(msgInvalidID)
	}
	return id, nil
}

func (s *TransactionService) queryError(err error) error {
	var freqErr *query.InvalidFreqError
	if errors.As(err, &freqErr) {
		return apperror.Validation(freqErr.Error())
	}
	return apperror.Internal(err)
}

func (s *TransactionService) storeError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return apperror.Conflict(msgDuplicateReference)
	case errors.Is(err, store.ErrConstraint):
		return &apperror.Error{Kind: apperror.KindValidation, Message: "transaction violates a data constraint", Err: err}
	case errors.Is(err, store.ErrNotFound):
		return apperror.NotFound(msgNotFound)
	default:
		return apperror.Internal(fmt.Errorf("%s: %w", op, err))
	}
}

func (s *TransactionService) publish(ctx context.Context, typ events.Type, t *models.Transaction) {
	if err := s.publisher.Publish(ctx, events.New(typ, t.ID, t.UserID)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event",
			"type", typ,
			"transaction_id", t.ID,
			logger.FieldError, err)
	}
}
