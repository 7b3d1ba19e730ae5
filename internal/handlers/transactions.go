package handlers

import (
	"net/http"

	"FINTRACK_BACK-END/internal/dto"
	"FINTRACK_BACK-END/internal/query"
	"FINTRACK_BACK-END/internal/services"
	"FINTRACK_BACK-END/internal/utils"
)

// TransactionsHandler manages transaction endpoints
type TransactionsHandler struct {
	svc *services.TransactionService
}

// NewTransactionsHandler creates a new TransactionsHandler
func NewTransactionsHandler(svc *services.TransactionService) *TransactionsHandler {
	return &TransactionsHandler{svc: svc}
}

// CreateTransaction handles POST /api/transactions
// @Summary Create a transaction
// @Description The transaction is always owned by the caller; a user field in the body is ignored
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateTransactionRequest true "Transaction payload"
// @Success 201 {object} dto.TransactionEnvelope
// @Failure 400 {object} dto.ErrorResponse "Invalid date, amount or field"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Reference already used"
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/transactions [post]
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return // Error already handled by DecodeJSONRequest
	}

	t, err := h.svc.Create(r.Context(), userID, services.CreateInput{
		Montant:     req.Montant,
		Type:        req.Type,
		Category:    req.Category,
		Date:        req.Date,
		Reference:   req.Reference,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.TransactionEnvelope{
		Success:     true,
		Transaction: dto.NewTransactionResponse(t),
	})
}

// ListTransactions handles GET /api/transactions
// @Summary List the caller's transactions
// @Description freq (7d, 30d, 365d; 7j, 30j, 365j accepted) overrides startDate and endDate
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param type query string false "income, expense or all"
// @Param category query string false "Category"
// @Param startDate query string false "Inclusive lower bound, DD-MM-YYYY"
// @Param endDate query string false "Inclusive upper bound, DD-MM-YYYY"
// @Param freq query string false "Relative window"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Param sort query string false "Sort fields, '-' for descending" default(-date)
// @Success 200 {object} dto.TransactionListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/transactions [get]
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	res, err := h.svc.List(r.Context(), userID, query.ParamsFromValues(r.URL.Query()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK,
		dto.NewTransactionListResponse(res.Total, res.Page, res.Pages, res.Transactions))
}

// TransactionSummary handles GET /api/transactions/summary
// @Summary Summarize the caller's transactions
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param type query string false "income, expense or all"
// @Param category query string false "Category"
// @Param startDate query string false "Inclusive lower bound, DD-MM-YYYY"
// @Param endDate query string false "Inclusive upper bound, DD-MM-YYYY"
// @Param freq query string false "Relative window"
// @Success 200 {object} dto.SummaryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/transactions/summary [get]
func (h *TransactionsHandler) TransactionSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	s, err := h.svc.Summary(r.Context(), userID, query.ParamsFromValues(r.URL.Query()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.NewSummaryResponse(s))
}

// TransactionDetail handles GET /api/transactions/{id}
// @Summary Get a transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionEnvelope
// @Failure 400 {object} dto.ErrorResponse "Malformed id"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/transactions/{id} [get]
func (h *TransactionsHandler) TransactionDetail(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	t, err := h.svc.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.TransactionEnvelope{
		Success:     true,
		Transaction: dto.NewTransactionResponse(t),
	})
}

// UpdateTransaction handles PUT /api/transactions/{id}
// @Summary Update a transaction
// @Description Only supplied fields change; the result is validated as a whole
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param payload body dto.UpdateTransactionRequest true "Fields to change"
// @Success 200 {object} dto.TransactionEnvelope
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/transactions/{id} [put]
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateTransactionRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	t, err := h.svc.Update(r.Context(), userID, r.PathValue("id"), services.UpdateInput{
		Montant:     req.Montant,
		Type:        req.Type,
		Category:    req.Category,
		Date:        req.Date,
		Reference:   req.Reference,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.TransactionEnvelope{
		Success:     true,
		Transaction: dto.NewTransactionResponse(t),
	})
}

// DeleteTransaction handles DELETE /api/transactions/{id}
// @Summary Delete a transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/transactions/{id} [delete]
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Transaction deleted",
	})
}
