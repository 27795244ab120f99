package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gorilla/websocket"
	"github.com/shiftsync/backend/internal/config"
	"github.com/shiftsync/backend/internal/domain"
	"github.com/shiftsync/backend/internal/hub"
	"github.com/shiftsync/backend/internal/store"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

type ReportRepository interface {
	GetEmployeeHours(ctx context.Context) ([]domain.EmployeeHours, error)
	GetAuditLogs(ctx context.Context, limit int) ([]*domain.AuditLog, error)
}

type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type EventQueue interface {
	PublishAudit(ctx context.Context, entry domain.AuditLog) error
	PublishMail(ctx context.Context, msg domain.MailMessage) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	translator ut.Translator
	upgrader   websocket.Upgrader

	shifts   *store.Store
	hub      *hub.Hub
	users    UserRepository
	reports  ReportRepository
	denylist TokenDenylist
	queue    EventQueue

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, shifts *store.Store, h *hub.Hub, users UserRepository, reports ReportRepository, denylist TokenDenylist, queue EventQueue) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	handler := &Handler{
		validate:   validate,
		config:     cfg,
		translator: trans,

		shifts:   shifts,
		hub:      h,
		users:    users,
		reports:  reports,
		denylist: denylist,
		queue:    queue,

		Mux: chi.NewRouter(),
	}
	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     handler.checkOrigin,
	}

	return handler, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(h.cors)

	h.Mux.Post("/register", h.Register)
	h.Mux.Post("/login", h.Login)

	// everything below needs a valid token
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/logout", h.Logout)
		r.Get("/ws", h.Subscribe)

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.GetAllShifts)
			r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Post("/", h.CreateShift)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftID)
				r.Get("/", h.GetShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Put("/", h.UpdateShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Delete("/", h.DeleteShift)

				r.Group(func(r chi.Router) {
					r.Use(h.RequiredRole([]domain.Role{domain.RoleEmployee}))
					r.Put("/request", h.RequestShift)
					r.Put("/cancel", h.CancelShiftRequest)
					r.Put("/request-drop", h.RequestDrop)
				})
				r.Group(func(r chi.Router) {
					r.Use(h.RequiredRole([]domain.Role{domain.RoleManager}))
					r.Put("/review", h.ReviewShiftRequest)
					r.Put("/review-drop", h.ReviewDropRequest)
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleManager}))
			r.Get("/analytics", h.GetAnalytics)
			r.Get("/audit-logs", h.GetAuditLogs)
		})
	})
}
