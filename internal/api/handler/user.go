// internal/api/handler/user.go
package handler

import (
	"log/slog"
	"net/http"

	"rewardvault/internal/api/types"
	"rewardvault/internal/domain"
	"rewardvault/internal/service"
)

// UserHandler handles HTTP requests for the caller's own account.
type UserHandler struct {
	responder
	users   service.UserService
	balance service.BalanceService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, balance service.BalanceService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		responder: newResponder(logger),
		users:     users,
		balance:   balance,
	}
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Phone          string `json:"phone" validate:"required,gh_phone"`
	Email          string `json:"email" validate:"omitempty,email"`
	InvitationCode string `json:"invitation_code" validate:"omitempty,len=5,numeric"`
}

// Register provisions the account for the authenticated subject.
// POST /api/v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		ID:             userID,
		Phone:          req.Phone,
		Email:          req.Email,
		InvitationCode: req.InvitationCode,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, user)
}

// Me returns the caller's profile and balance.
// GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

// Ledger lists the caller's balance entries, newest first.
// GET /api/v1/me/ledger
func (h *UserHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	entries, total, err := h.balance.History(r.Context(), userID, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.BalanceEntry]{
		Data:       entries,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// CheckIn credits the daily check-in bonus.
// POST /api/v1/me/checkin
func (h *UserHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	entry, err := h.users.CheckIn(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Check-in successful",
		"amount":      entry.Amount,
		"new_balance": entry.BalanceAfter,
	})
}

// Team returns the caller's referral summary.
// GET /api/v1/me/team
func (h *UserHandler) Team(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	team, err := h.users.Team(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, team)
}
