package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shiftsync/backend/internal/arbiter"
	"github.com/shiftsync/backend/internal/domain"
	"github.com/shiftsync/backend/internal/store"
)

func shiftIDFrom(r *http.Request) string {
	return r.Context().Value(ShiftIDCtx).(string)
}

func (h *Handler) GetAllShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.shifts.GetAll(r.Context())
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "shifts fetched", shifts)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.shifts.Get(r.Context(), shiftIDFrom(r))
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift fetched", shift)
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string    `json:"title" validate:"required,min=3,max=50"`
		StartTime time.Time `json:"start_time" validate:"required"`
		EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	actor := actorFrom(r)
	shift, err := h.shifts.Create(r.Context(), actor, req.Title, req.StartTime, req.EndTime)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	h.audit(r, "create_shift", actor, shift.ID)

	h.writeJSON(w, r, http.StatusCreated, Response{
		Success: true,
		Message: "shift created",
		Data:    shift,
	})
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     *string    `json:"title" validate:"omitempty,min=3,max=50"`
		StartTime *time.Time `json:"start_time"`
		EndTime   *time.Time `json:"end_time"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Title == nil && req.StartTime == nil && req.EndTime == nil {
		h.errorResponse(w, r, http.StatusBadRequest, "nothing to update")
		return
	}

	actor := actorFrom(r)
	shift, err := h.shifts.Update(r.Context(), actor, shiftIDFrom(r), store.ShiftUpdate{
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	h.audit(r, "update_shift", actor, shift.ID)

	h.successResponse(w, r, "shift updated", shift)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	id := shiftIDFrom(r)

	if err := h.shifts.Delete(r.Context(), actor, id); err != nil {
		h.domainError(w, r, err)
		return
	}
	h.audit(r, "delete_shift", actor, id)

	h.successResponse(w, r, "shift deleted", nil)
}

func (h *Handler) RequestShift(w http.ResponseWriter, r *http.Request) {
	h.selfService(w, r, arbiter.RequestClaim, "shift requested")
}

func (h *Handler) CancelShiftRequest(w http.ResponseWriter, r *http.Request) {
	h.selfService(w, r, arbiter.CancelClaim, "shift request cancelled")
}

func (h *Handler) RequestDrop(w http.ResponseWriter, r *http.Request) {
	h.selfService(w, r, arbiter.RequestDrop, "drop requested")
}

func (h *Handler) ReviewShiftRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, arbiter.ApproveClaim, arbiter.DenyClaim, domain.MailTypeClaimReviewed)
}

func (h *Handler) ReviewDropRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, arbiter.ApproveDrop, arbiter.DenyDrop, domain.MailTypeDropReviewed)
}

// selfService runs an action the caller performs on their own membership.
func (h *Handler) selfService(w http.ResponseWriter, r *http.Request, action arbiter.Action, msg string) {
	actor := actorFrom(r)

	shift, err := h.shifts.Transition(r.Context(), actor, shiftIDFrom(r), action, actor.Username)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	h.audit(r, string(action), actor, shift.ID)

	h.successResponse(w, r, msg, shift)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, approve, deny arbiter.Action, mailType string) {
	var req struct {
		EmployeeName string `json:"employee_name" validate:"required"`
		Action       string `json:"action" validate:"required,oneof=approve deny"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	action := deny
	if req.Action == "approve" {
		action = approve
	}

	actor := actorFrom(r)
	shift, err := h.shifts.Transition(r.Context(), actor, shiftIDFrom(r), action, req.EmployeeName)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	h.audit(r, string(action), actor, shift.ID)
	h.notifyReview(r, mailType, shift, req.EmployeeName, action == approve, actor)

	h.successResponse(w, r, "request reviewed", shift)
}

// audit records a committed mutation. The change is already visible to every
// subscriber, so a failed publish is only logged.
func (h *Handler) audit(r *http.Request, action string, actor domain.Actor, shiftID string) {
	entry := domain.AuditLog{
		Action:        action,
		User:          actor.Username,
		TargetShiftID: shiftID,
		Timestamp:     time.Now().UTC(),
	}

	if err := h.queue.PublishAudit(context.WithoutCancel(r.Context()), entry); err != nil {
		slog.Error("failed to publish audit log", "action", action, "user", actor.Username, "shift", shiftID, "error", err)
	}
}

func (h *Handler) notifyReview(r *http.Request, mailType string, shift *domain.Shift, employee string, approved bool, reviewer domain.Actor) {
	ctx := context.WithoutCancel(r.Context())

	user, err := h.users.GetUserByUsername(ctx, employee)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			slog.Error("failed to look up reviewed employee", "username", employee, "error", err)
		}
		return
	}
	if user.Email == "" {
		return
	}

	msg := domain.MailMessage{
		Type: mailType,
		To:   user.Email,
		Data: domain.ReviewMailData{
			Username:   user.Username,
			ShiftTitle: shift.Title,
			StartTime:  shift.StartTime,
			EndTime:    shift.EndTime,
			Approved:   approved,
			Reviewer:   reviewer.Username,
		},
	}
	if err := h.queue.PublishMail(ctx, msg); err != nil {
		slog.Error("failed to publish review mail", "type", mailType, "to", user.Email, "error", err)
	}
}
