// internal/api/handler/admin.go
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rewardvault/internal/api/types"
	"rewardvault/internal/domain"
	"rewardvault/internal/service"
)

// SweepRunner runs an on-demand accrual sweep. The bool is false when a sweep
// is already running elsewhere.
type SweepRunner interface {
	RunOnce(ctx context.Context) (*service.SweepSummary, bool, error)
}

// SweepFailedResponse carries whatever an interrupted sweep credited before it stopped.
type SweepFailedResponse struct {
	Error   string                `json:"error"`
	Summary *service.SweepSummary `json:"summary"`
}

// AdminHandler handles the back-office routes. All routes sit behind RequireAdmin.
type AdminHandler struct {
	responder
	users       service.UserService
	recharges   service.RechargeService
	withdrawals service.WithdrawalService
	sweeps      SweepRunner
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	users service.UserService,
	recharges service.RechargeService,
	withdrawals service.WithdrawalService,
	sweeps SweepRunner,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		responder:   newResponder(logger),
		users:       users,
		recharges:   recharges,
		withdrawals: withdrawals,
		sweeps:      sweeps,
	}
}

// Stats returns platform-wide totals.
// GET /api/v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.users.Stats(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, stats)
}

// ListRecharges lists recharge records by status, pending by default.
// GET /api/v1/admin/recharges?status=pending
func (h *AdminHandler) ListRecharges(w http.ResponseWriter, r *http.Request) {
	status := domain.RecordStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.StatusPending
	}
	limit, offset := pagination(r)
	records, total, err := h.recharges.ListRechargesByStatus(r.Context(), status, limit, offset)
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

// ListWithdrawals lists withdrawal records by status, pending by default.
// GET /api/v1/admin/withdrawals?status=pending
func (h *AdminHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := domain.RecordStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.StatusPending
	}
	limit, offset := pagination(r)
	records, total, err := h.withdrawals.ListWithdrawalsByStatus(r.Context(), status, limit, offset)
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

// ApproveRequest optionally overrides the credited recharge amount.
type ApproveRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gte=0"`
}

// ApproveRecharge credits a pending recharge.
// POST /api/v1/admin/recharges/{recordID}/approve
func (h *AdminHandler) ApproveRecharge(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	recordID, ok := h.pathID(w, r, "recordID")
	if !ok {
		return
	}
	var req ApproveRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}

	record, err := h.recharges.ApproveRecharge(r.Context(), adminID, recordID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, record)
}

// DeclineRecharge marks a pending recharge failed.
// POST /api/v1/admin/recharges/{recordID}/decline
func (h *AdminHandler) DeclineRecharge(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	recordID, ok := h.pathID(w, r, "recordID")
	if !ok {
		return
	}
	record, err := h.recharges.DeclineRecharge(r.Context(), adminID, recordID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, record)
}

// CompleteWithdrawal marks a pending withdrawal paid out.
// POST /api/v1/admin/withdrawals/{recordID}/complete
func (h *AdminHandler) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.settleWithdrawal(w, r, h.withdrawals.CompleteWithdrawal)
}

// DeclineWithdrawal marks a pending withdrawal failed and refunds it.
// POST /api/v1/admin/withdrawals/{recordID}/decline
func (h *AdminHandler) DeclineWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.settleWithdrawal(w, r, h.withdrawals.DeclineWithdrawal)
}

func (h *AdminHandler) settleWithdrawal(
	w http.ResponseWriter,
	r *http.Request,
	settle func(ctx context.Context, adminID, recordID uuid.UUID) (*domain.WithdrawRecord, error),
) {
	adminID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	recordID, ok := h.pathID(w, r, "recordID")
	if !ok {
		return
	}
	record, err := settle(r.Context(), adminID, recordID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, record)
}

// CreditRequest represents the request body for a manual credit.
type CreditRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// CreditUser credits a user's balance directly.
// POST /api/v1/admin/users/{userID}/credit
func (h *AdminHandler) CreditUser(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req CreditRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.recharges.CreditUser(r.Context(), adminID, userID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, result)
}

// BlockRequest sets or clears the blocked flag.
type BlockRequest struct {
	Blocked bool `json:"blocked"`
}

// BlockUser toggles a user's blocked flag.
// POST /api/v1/admin/users/{userID}/block
func (h *AdminHandler) BlockUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req BlockRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.users.SetBlocked(r.Context(), userID, req.Blocked)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

// Sweep runs the accrual sweep immediately.
// POST /api/v1/admin/accrual/sweep
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	summary, ran, err := h.sweeps.RunOnce(r.Context())
	if err != nil && summary != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		h.logger.Error("Manual accrual sweep interrupted", "error", err, "processed", summary.Processed)
		h.respondWithJSON(w, status, SweepFailedResponse{Error: "Sweep interrupted", Summary: summary})
		return
	}
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if !ran {
		h.respondWithJSON(w, http.StatusConflict, ErrorResponse{Error: "Sweep already running"})
		return
	}
	h.respondWithJSON(w, http.StatusOK, summary)
}
