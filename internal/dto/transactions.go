package dto

import (
	"encoding/json"
	"time"

	"FINTRACK_BACK-END/internal/models"
	"FINTRACK_BACK-END/internal/summary"
)

// DateLayout is how transaction dates are written in responses
const DateLayout = "2006-01-02"

// CreateTransactionRequest is the body of POST /api/transactions.
// Montant accepts a JSON number or a string such as "12,50"; date accepts
// DD-MM-YYYY or any common date layout.
type CreateTransactionRequest struct {
	Montant     any     `json:"montant" swaggertype:"number" example:"12.5"`
	Type        string  `json:"type" example:"expense"`
	Category    string  `json:"category" example:"food"`
	Date        string  `json:"date" example:"05-03-2024"`
	Reference   string  `json:"reference" example:"INV-2024-001"`
	Description *string `json:"description,omitempty"`
}

// UpdateTransactionRequest is the body of PUT /api/transactions/{id}. Absent
// fields are left unchanged; user and id are ignored.
type UpdateTransactionRequest struct {
	Montant     any     `json:"montant,omitempty" swaggertype:"number"`
	Type        *string `json:"type,omitempty"`
	Category    *string `json:"category,omitempty"`
	Date        *string `json:"date,omitempty"`
	Reference   *string `json:"reference,omitempty"`
	Description *string `json:"description,omitempty"`
}

// TransactionResponse is the canonical record shape
type TransactionResponse struct {
	ID          string      `json:"id"`
	User        string      `json:"user"`
	Montant     json.Number `json:"montant" swaggertype:"number"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	Reference   string      `json:"reference"`
	Description string      `json:"description"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
}

// NewTransactionResponse converts a stored transaction
func NewTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID.String(),
		User:        t.UserID.String(),
		Montant:     json.Number(t.Montant.String()),
		Type:        string(t.Type),
		Category:    string(t.Category),
		Date:        t.Date.Format(DateLayout),
		Reference:   t.Reference,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// TransactionEnvelope wraps a single record
type TransactionEnvelope struct {
	Success     bool                `json:"success"`
	Transaction TransactionResponse `json:"transaction"`
}

// TransactionListResponse is one page of records
type TransactionListResponse struct {
	Success      bool                  `json:"success"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	Pages        int                   `json:"pages"`
	Transactions []TransactionResponse `json:"transactions"`
}

// NewTransactionListResponse converts a page; the list is never null
func NewTransactionListResponse(total, page, pages int, items []models.Transaction) TransactionListResponse {
	out := make([]TransactionResponse, len(items))
	for i := range items {
		out[i] = NewTransactionResponse(&items[i])
	}
	return TransactionListResponse{
		Success:      true,
		Total:        total,
		Page:         page,
		Pages:        pages,
		Transactions: out,
	}
}

// MessageResponse confirms an operation with no payload
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CategoryAmount is one line of a summary breakdown
type CategoryAmount struct {
	Category   string      `json:"category"`
	Montant    json.Number `json:"montant" swaggertype:"number"`
	Percentage int         `json:"percentage"`
}

// SummaryResponse is the body of GET /api/transactions/summary
type SummaryResponse struct {
	Success            bool             `json:"success"`
	Total              int              `json:"total"`
	RevenusCount       int              `json:"revenusCount"`
	DepensesCount      int              `json:"depensesCount"`
	Revenus            json.Number      `json:"revenus" swaggertype:"number"`
	Depenses           json.Number      `json:"depenses" swaggertype:"number"`
	TotalMontant       json.Number      `json:"totalMontant" swaggertype:"number"`
	CategoriesRevenus  []CategoryAmount `json:"categoriesRevenus"`
	CategoriesDepenses []CategoryAmount `json:"categoriesDepenses"`
}

// NewSummaryResponse converts an aggregation result
func NewSummaryResponse(s summary.Summary) SummaryResponse {
	return SummaryResponse{
		Success:            true,
		Total:              s.Total,
		RevenusCount:       s.IncomeCount,
		DepensesCount:      s.ExpenseCount,
		Revenus:            json.Number(s.IncomeSum.String()),
		Depenses:           json.Number(s.ExpenseSum.String()),
		TotalMontant:       json.Number(s.TotalAmount.String()),
		CategoriesRevenus:  categoryAmounts(s.IncomeCategories),
		CategoriesDepenses: categoryAmounts(s.ExpenseCategories),
	}
}

func categoryAmounts(in []summary.CategoryTotal) []CategoryAmount {
	out := make([]CategoryAmount, len(in))
	for i, c := range in {
		out[i] = CategoryAmount{
			Category:   c.Category,
			Montant:    json.Number(c.Amount.String()),
			Percentage: c.Percentage,
		}
	}
	return out
}
