// internal/api/handler/device.go
package handler

import (
	"log/slog"
	"net/http"

	"rewardvault/internal/api/types"
	"rewardvault/internal/domain"
	"rewardvault/internal/service"
)

// DeviceHandler handles catalog, purchase and accrual requests.
type DeviceHandler struct {
	responder
	devices service.DeviceService
	accrual service.AccrualService
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(devices service.DeviceService, accrual service.AccrualService, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{
		responder: newResponder(logger),
		devices:   devices,
		accrual:   accrual,
	}
}

// Catalog lists the purchasable device templates.
// GET /api/v1/catalog
func (h *DeviceHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": h.devices.Catalog()})
}

// PurchaseRequest represents the request body for a device purchase.
type PurchaseRequest struct {
	DeviceNumber int `json:"device_number" validate:"required,min=1"`
}

// Purchase buys a device from the catalog.
// POST /api/v1/devices
func (h *DeviceHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req PurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.devices.Purchase(r.Context(), userID, req.DeviceNumber)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, result)
}

// ListDevices lists the caller's devices with their countdown.
// GET /api/v1/devices
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	devices, err := h.devices.ListDevices(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": devices})
}

// Credit credits one device if its window has elapsed. An early call is
// answered with success=false and a reason, not an error status.
// POST /api/v1/devices/{deviceID}/credit
func (h *DeviceHandler) Credit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	deviceID, ok := h.pathID(w, r, "deviceID")
	if !ok {
		return
	}

	result, err := h.accrual.CreditForOwner(r.Context(), userID, deviceID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, result)
}

// IncomeRecords lists the caller's income history.
// GET /api/v1/income-records
func (h *DeviceHandler) IncomeRecords(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	records, total, err := h.devices.IncomeHistory(r.Context(), userID, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.IncomeRecord]{
		Data:       records,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}
