package client

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shiftsync/backend/internal/arbiter"
	"github.com/shiftsync/backend/internal/config"
	"github.com/shiftsync/backend/internal/domain"
	"github.com/shiftsync/backend/internal/handler"
	"github.com/shiftsync/backend/internal/hub"
	"github.com/shiftsync/backend/internal/projection"
	"github.com/shiftsync/backend/internal/repository"
	"github.com/shiftsync/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type noRevocations struct{}

func (noRevocations) Revoke(ctx context.Context, jti string, expiresAt time.Time) error { return nil }
func (noRevocations) IsRevoked(ctx context.Context, jti string) (bool, error)            { return false, nil }

type noQueue struct{}

func (noQueue) PublishAudit(ctx context.Context, entry domain.AuditLog) error  { return nil }
func (noQueue) PublishMail(ctx context.Context, msg domain.MailMessage) error { return nil }

func startServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600
	cfg.Hub.SendBuffer = 16
	cfg.Hub.PingInterval = 30
	cfg.Hub.PongWait = 60
	cfg.Hub.WriteWait = 10

	db := repository.NewMemory()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.CreateUser(context.Background(), &domain.User{Username: "alice", PasswordHash: string(hash), Role: domain.RoleEmployee}))

	h := hub.New(250 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	shifts := store.New(db, h)
	api, err := handler.NewHandler(cfg, shifts, h, db, db, noRevocations{}, noQueue{})
	require.NoError(t, err)
	api.RegisterRoutes()

	srv := httptest.NewServer(api.Mux)
	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})
	return srv, shifts
}

func TestSyncConverges(t *testing.T) {
	srv, shifts := startServer(t)
	manager := domain.Actor{Username: "boss", Role: domain.RoleManager}
	alice := domain.Actor{Username: "alice", Role: domain.RoleEmployee}
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	before, err := shifts.Create(context.Background(), manager, "Morning", start, start.Add(4*time.Hour))
	require.NoError(t, err)

	c := New(srv.URL, "")
	require.NoError(t, c.Login(context.Background(), "alice", "secret123"))

	var updates atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- c.Sync(ctx, func(*projection.Projection) { updates.Add(1) })
	}()

	require.Eventually(t, func() bool {
		_, ok := c.Projection.Get(before.ID)
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	after, err := shifts.Create(context.Background(), manager, "Evening", start.Add(8*time.Hour), start.Add(12*time.Hour))
	require.NoError(t, err)
	_, err = shifts.Transition(context.Background(), alice, before.ID, arbiter.RequestClaim, "alice")
	require.NoError(t, err)
	require.NoError(t, shifts.Delete(context.Background(), manager, after.ID))

	want, err := shifts.GetAll(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		got := c.Projection.Shifts()
		if len(got) != len(want) {
			return false
		}
		for i := range want {
			if got[i].ID != want[i].ID || got[i].Version != want[i].Version {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	got, _ := c.Projection.Get(before.ID)
	assert.Equal(t, []string{"alice"}, got.PendingEmployees)
	assert.Positive(t, updates.Load())

	cancel()
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Sync did not return after cancel")
	}
}

func TestSyncRejectsBadToken(t *testing.T) {
	srv, _ := startServer(t)

	err := New(srv.URL, "bogus").Sync(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
