package queue

import (
	"context"
	"log/slog"

	"github.com/shiftsync/backend/internal/domain"
)

type AuditStore interface {
	CreateAuditLog(ctx context.Context, entry *domain.AuditLog) error
}

// Direct writes audit entries straight to store instead of going through a
// broker. It serves DATABASE_DRIVER=memory, where no worker can reach the
// API's storage. Mail is dropped.
type Direct struct {
	store AuditStore
}

func NewDirect(store AuditStore) *Direct {
	return &Direct{store: store}
}

func (d *Direct) PublishAudit(ctx context.Context, entry domain.AuditLog) error {
	return d.store.CreateAuditLog(ctx, &entry)
}

func (d *Direct) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	slog.Debug("mail delivery needs the worker, dropping", "type", msg.Type, "to", msg.To)
	return nil
}
