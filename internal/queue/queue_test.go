package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftsync/backend/internal/domain"
	"github.com/shiftsync/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	key string
	msg amqp.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{key: key, msg: msg})
	return nil
}

func TestPublisherRoutesToQueues(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, time.Second, "audit", "mail")
	ctx := context.Background()

	entry := domain.AuditLog{Action: "Deleted Shift", User: "boss", TargetShiftID: "s1", Timestamp: time.Unix(0, 0).UTC()}
	require.NoError(t, p.PublishAudit(ctx, entry))
	require.NoError(t, p.PublishMail(ctx, domain.MailMessage{Type: domain.MailTypeClaimReviewed, To: "a@example.com"}))

	require.Len(t, ch.sent, 2)
	assert.Equal(t, "audit", ch.sent[0].key)
	assert.Equal(t, "mail", ch.sent[1].key)
	assert.Equal(t, "application/json", ch.sent[0].msg.ContentType)

	var decoded domain.AuditLog
	require.NoError(t, json.Unmarshal(ch.sent[0].msg.Body, &decoded))
	assert.Equal(t, entry, decoded)
}

func TestPublisherReturnsChannelErrors(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	p := NewPublisher(ch, time.Second, "audit", "mail")
	require.ErrorIs(t, p.PublishAudit(context.Background(), domain.AuditLog{}), amqp.ErrClosed)
}

func TestDirectStoresAuditLogs(t *testing.T) {
	ctx := context.Background()
	db := repository.NewMemory()
	d := NewDirect(db)

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, d.PublishAudit(ctx, domain.AuditLog{Action: "create_shift", User: "boss", TargetShiftID: "s1", Timestamp: at}))
	require.NoError(t, d.PublishAudit(ctx, domain.AuditLog{Action: "request-claim", User: "alice", TargetShiftID: "s1", Timestamp: at.Add(time.Minute)}))
	require.NoError(t, d.PublishMail(ctx, domain.MailMessage{Type: domain.MailTypeClaimReviewed, To: "alice@example.com"}))

	logs, err := db.GetAuditLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "request-claim", logs[0].Action)
	assert.Equal(t, "boss", logs[1].User)
}
