// internal/api/handler/recharge.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"rewardvault/internal/api/types"
	"rewardvault/internal/domain"
	"rewardvault/internal/service"
)

// RechargeHandler handles the caller's deposit requests.
type RechargeHandler struct {
	responder
	recharges service.RechargeService
}

// NewRechargeHandler creates a new RechargeHandler.
func NewRechargeHandler(recharges service.RechargeService, logger *slog.Logger) *RechargeHandler {
	return &RechargeHandler{
		responder: newResponder(logger),
		recharges: recharges,
	}
}

// RechargeRequest represents the request body for a deposit.
type RechargeRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	TransactionID string          `json:"transaction_id" validate:"required,numeric"`
	EWalletNumber string          `json:"e_wallet_number" validate:"required"`
}

// Create records a pending recharge for admin review.
// POST /api/v1/recharges
func (h *RechargeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req RechargeRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.recharges.RequestRecharge(r.Context(), userID, req.Amount, req.TransactionID, req.EWalletNumber)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, record)
}

// List lists the caller's recharge records.
// GET /api/v1/recharges
func (h *RechargeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	records, total, err := h.recharges.ListRecharges(r.Context(), userID, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.RechargeRecord]{
		Data:       records,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}
