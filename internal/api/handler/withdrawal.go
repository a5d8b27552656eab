// internal/api/handler/withdrawal.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rewardvault/internal/api/types"
	"rewardvault/internal/domain"
	"rewardvault/internal/service"
)

// WithdrawalHandler handles withdrawals and payout accounts.
type WithdrawalHandler struct {
	responder
	withdrawals service.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawals service.WithdrawalService, logger *slog.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{
		responder:   newResponder(logger),
		withdrawals: withdrawals,
	}
}

// WithdrawRequest represents the request body for a withdrawal.
type WithdrawRequest struct {
	AccountID uuid.UUID       `json:"account_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
}

// Create debits the balance and records a pending withdrawal.
// POST /api/v1/withdrawals
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req WithdrawRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.withdrawals.RequestWithdrawal(r.Context(), userID, req.AccountID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, record)
}

// List lists the caller's withdrawal records.
// GET /api/v1/withdrawals
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	records, total, err := h.withdrawals.ListWithdrawals(r.Context(), userID, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.WithdrawRecord]{
		Data:       records,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// AccountRequest represents the request body for a payout account.
type AccountRequest struct {
	AccountName   string `json:"account_name" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required"`
	Provider      string `json:"provider" validate:"required"`
}

// AddAccount stores a payout account.
// POST /api/v1/withdrawal-accounts
func (h *WithdrawalHandler) AddAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req AccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	account, err := h.withdrawals.AddAccount(r.Context(), userID, req.AccountName, req.AccountNumber, req.Provider)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, account)
}

// ListAccounts lists the caller's payout accounts.
// GET /api/v1/withdrawal-accounts
func (h *WithdrawalHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	accounts, err := h.withdrawals.ListAccounts(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": accounts})
}

// DeleteAccount removes one of the caller's payout accounts.
// DELETE /api/v1/withdrawal-accounts/{accountID}
func (h *WithdrawalHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	accountID, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	if err := h.withdrawals.DeleteAccount(r.Context(), userID, accountID); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
