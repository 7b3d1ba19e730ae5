package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"FINTRACK_BACK-END/internal/models"
	"FINTRACK_BACK-END/internal/query"
)

// SQLiteStoreTestSuite runs the store contract against an in-memory database
type SQLiteStoreTestSuite struct {
	suite.Suite
	store *SQLiteStore
	ctx   context.Context
	alice *models.User
	bob   *models.User
}

func (s *SQLiteStoreTestSuite) SetupTest() {
	st, err := NewSQLiteStore(":memory:")
	require.NoError(s.T(), err, "failed to create test database")
	s.store = st
	s.ctx = context.Background()
	s.alice = s.newUser("alice@example.com")
	s.bob = s.newUser("bob@example.com")
}

func (s *SQLiteStoreTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *SQLiteStoreTestSuite) newUser(email string) *models.User {
	now := time.Now().UTC()
	u := &models.User{ID: uuid.New(), Email: email, PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	require.NoError(s.T(), s.store.CreateUser(s.ctx, u))
	return u
}

func (s *SQLiteStoreTestSuite) newTransaction(owner *models.User, ref string, typ models.TransactionType, cat models.Category, amount string, date time.Time) *models.Transaction {
	now := time.Now().UTC()
	t := &models.Transaction{
		ID:        uuid.New(),
		UserID:    owner.ID,
		Montant:   decimal.RequireFromString(amount),
		Type:      typ,
		Category:  cat,
		Date:      date,
		Reference: ref,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(s.T(), s.store.CreateTransaction(s.ctx, t), "failed to create %s", ref)
	return t
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *SQLiteStoreTestSuite) TestUserByEmailIsCaseInsensitive() {
	u, err := s.store.UserByEmail(s.ctx, "ALICE@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.alice.ID, u.ID)

	_, err = s.store.UserByEmail(s.ctx, "nobody@example.com")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *SQLiteStoreTestSuite) TestDuplicateEmail() {
	now := time.Now().UTC()
	err := s.store.CreateUser(s.ctx, &models.User{ID: uuid.New(), Email: "Alice@Example.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(s.T(), err, ErrDuplicate)
}

func (s *SQLiteStoreTestSuite) TestCreateAndReadOwned() {
	t := s.newTransaction(s.alice, "REF-1", models.TypeExpense, models.CategoryFood, "12.50", day(2024, 3, 5))

	got, err := s.store.OwnedTransaction(s.ctx, t.ID, s.alice.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.alice.ID, got.UserID)
	assert.True(s.T(), got.Montant.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(s.T(), day(2024, 3, 5), got.Date)
	assert.Equal(s.T(), "REF-1", got.Reference)

	_, err = s.store.OwnedTransaction(s.ctx, t.ID, s.bob.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *SQLiteStoreTestSuite) TestReferenceUniquePerUser() {
	s.newTransaction(s.alice, "REF-1", models.TypeExpense, models.CategoryFood, "10", day(2024, 3, 5))

	dup := &models.Transaction{
		ID: uuid.New(), UserID: s.alice.ID, Montant: decimal.NewFromInt(1), Type: models.TypeIncome,
		Category: models.CategorySalary, Date: day(2024, 3, 6), Reference: "REF-1",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	assert.ErrorIs(s.T(), s.store.CreateTransaction(s.ctx, dup), ErrDuplicate)

	// another user may reuse the reference
	s.newTransaction(s.bob, "REF-1", models.TypeExpense, models.CategoryFood, "10", day(2024, 3, 5))
}

func (s *SQLiteStoreTestSuite) TestCheckConstraint() {
	bad := &models.Transaction{
		ID: uuid.New(), UserID: s.alice.ID, Montant: decimal.NewFromInt(-5), Type: models.TypeIncome,
		Category: models.CategorySalary, Date: day(2024, 3, 6), Reference: "NEG",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	assert.ErrorIs(s.T(), s.store.CreateTransaction(s.ctx, bad), ErrConstraint)
}

func (s *SQLiteStoreTestSuite) TestUpdateAndDeleteAreOwnerScoped() {
	t := s.newTransaction(s.alice, "REF-1", models.TypeExpense, models.CategoryFood, "10", day(2024, 3, 5))

	foreign := *t
	foreign.UserID = s.bob.ID
	foreign.Montant = decimal.NewFromInt(999)
	assert.ErrorIs(s.T(), s.store.UpdateOwnedTransaction(s.ctx, &foreign), ErrNotFound)
	assert.ErrorIs(s.T(), s.store.DeleteOwnedTransaction(s.ctx, t.ID, s.bob.ID), ErrNotFound)

	t.Montant = decimal.RequireFromString("20.25")
	t.Description = "updated"
	require.NoError(s.T(), s.store.UpdateOwnedTransaction(s.ctx, t))

	got, err := s.store.OwnedTransaction(s.ctx, t.ID, s.alice.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), got.Montant.Equal(decimal.RequireFromString("20.25")))
	assert.Equal(s.T(), "updated", got.Description)

	require.NoError(s.T(), s.store.DeleteOwnedTransaction(s.ctx, t.ID, s.alice.ID))
	assert.ErrorIs(s.T(), s.store.DeleteOwnedTransaction(s.ctx, t.ID, s.alice.ID), ErrNotFound)
}

func (s *SQLiteStoreTestSuite) TestListFilterSortAndPage() {
	s.newTransaction(s.alice, "A", models.TypeExpense, models.CategoryFood, "5", day(2024, 1, 10))
	s.newTransaction(s.alice, "B", models.TypeExpense, models.CategoryTax, "100", day(2024, 2, 10))
	s.newTransaction(s.alice, "C", models.TypeIncome, models.CategorySalary, "2000", day(2024, 3, 10))
	s.newTransaction(s.alice, "D", models.TypeExpense, models.CategoryFood, "9.99", day(2024, 3, 11))
	s.newTransaction(s.bob, "E", models.TypeExpense, models.CategoryFood, "1", day(2024, 3, 11))

	all := query.Query{
		Filter: query.Filter{UserID: s.alice.ID},
		Page:   query.Page{Number: 1, Limit: 10},
		Sort:   query.ParseSort(""),
	}
	items, err := s.store.ListTransactions(s.ctx, all)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"D", "C", "B", "A"}, refs(items))

	byAmount := all
	byAmount.Sort = query.ParseSort("-montant")
	items, err = s.store.ListTransactions(s.ctx, byAmount)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"C", "B", "D", "A"}, refs(items))

	from, to := day(2024, 2, 1), day(2024, 3, 10)
	window := all
	window.Filter.From, window.Filter.To = &from, &to
	items, err = s.store.ListTransactions(s.ctx, window)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"C", "B"}, refs(items))

	food := all
	food.Filter.Type, food.Filter.Category = "expense", "food"
	total, err := s.store.CountTransactions(s.ctx, food.Filter)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, total)

	page2 := all
	page2.Page = query.Page{Number: 2, Limit: 3, Offset: 3}
	items, err = s.store.ListTransactions(s.ctx, page2)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"A"}, refs(items))

	beyond := all
	beyond.Page = query.Page{Number: 5, Limit: 3, Offset: 12}
	items, err = s.store.ListTransactions(s.ctx, beyond)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), items)
	assert.Empty(s.T(), items)
}

func (s *SQLiteStoreTestSuite) TestSortByCreatedAtAcrossFractionalSeconds() {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, c := range []struct {
		ref string
		at  time.Time
	}{
		{"half", base.Add(500 * time.Millisecond)},
		{"whole", base},
		{"next", base.Add(time.Second)},
	} {
		t := &models.Transaction{
			ID: uuid.New(), UserID: s.alice.ID, Montant: decimal.NewFromInt(1),
			Type: models.TypeExpense, Category: models.CategoryFood, Date: day(2024, time.March, 1),
			Reference: c.ref, CreatedAt: c.at, UpdatedAt: c.at,
		}
		require.NoError(s.T(), s.store.CreateTransaction(s.ctx, t))
	}

	rows, err := s.store.ListTransactions(s.ctx, query.Query{
		Filter: query.Filter{UserID: s.alice.ID},
		Page:   query.Page{Number: 1, Limit: 10},
		Sort:   []query.SortField{{Field: query.FieldCreatedAt}},
	})
	require.NoError(s.T(), err)
	refs := make([]string, len(rows))
	for i, r := range rows {
		refs[i] = r.Reference
	}
	assert.Equal(s.T(), []string{"whole", "half", "next"}, refs)

	got, err := s.store.OwnedTransaction(s.ctx, rows[1].ID, s.alice.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), got.CreatedAt.Equal(base.Add(500*time.Millisecond)))
}

func (s *SQLiteStoreTestSuite) TestSumTransactions() {
	s.newTransaction(s.alice, "A", models.TypeExpense, models.CategoryFood, "0.1", day(2024, 1, 10))
	s.newTransaction(s.alice, "B", models.TypeExpense, models.CategoryFood, "0.2", day(2024, 1, 11))
	s.newTransaction(s.alice, "C", models.TypeIncome, models.CategorySalary, "1500", day(2024, 1, 12))
	s.newTransaction(s.bob, "D", models.TypeIncome, models.CategorySalary, "99", day(2024, 1, 12))

	buckets, err := s.store.SumTransactions(s.ctx, query.Filter{UserID: s.alice.ID})
	require.NoError(s.T(), err)
	require.Len(s.T(), buckets, 2)

	for _, b := range buckets {
		switch b.Type {
		case "expense":
			assert.Equal(s.T(), "food", b.Category)
			assert.Equal(s.T(), 2, b.Count)
			assert.True(s.T(), b.Sum.Equal(decimal.RequireFromString("0.3")), "got %s", b.Sum)
		case "income":
			assert.Equal(s.T(), 1, b.Count)
			assert.True(s.T(), b.Sum.Equal(decimal.NewFromInt(1500)))
		}
	}

	empty, err := s.store.SumTransactions(s.ctx, query.Filter{UserID: uuid.New()})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), empty)
}

func refs(items []models.Transaction) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.Reference
	}
	return out
}

func TestSQLiteStoreTestSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreTestSuite))
}
