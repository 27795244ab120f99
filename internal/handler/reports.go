package handler

import (
	"net/http"
	"strconv"
)

func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	hours, err := h.reports.GetEmployeeHours(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "analytics fetched", hours)
}

func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := h.config.AuditLogs.Limit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.errorResponse(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, limit)
	}

	logs, err := h.reports.GetAuditLogs(r.Context(), limit)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "audit logs fetched", logs)
}
