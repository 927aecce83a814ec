package httpapi

import (
	"net/http"

	"github.com/northwind-labs/storefront/internal/domain/order"
)

func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.Summary(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(s))
}

func (h *Handler) adminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTOs(users))
}

func (h *Handler) adminOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.AllOrders(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) adminSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.orders.SetStatus(r.Context(), r.PathValue("id"), status); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
