package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

type fakeNotificationBackend struct {
	mu      sync.Mutex
	pending []models.Notification
	unread  int
	failing bool
	ticks   int
}

func (f *fakeNotificationBackend) Notifications(context.Context, string) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, nil
}

func (f *fakeNotificationBackend) PendingNotifications(context.Context, string) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks++
	if f.failing {
		return nil, errors.New("backend down")
	}
	return f.pending, nil
}

func (f *fakeNotificationBackend) UnreadCount(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread, nil
}

func (f *fakeNotificationBackend) set(pending []models.Notification, unread int, failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending, f.unread, f.failing = pending, unread, failing
}

func (f *fakeNotificationBackend) tickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks
}

func TestNotificationPollerLifecycle(t *testing.T) {
	backend := &fakeNotificationBackend{pending: []models.Notification{{ID: 1, Tipo: models.NotificationProjectInvite}}, unread: 1}
	svc := NewNotificationService(backend, 10*time.Millisecond, NewMetricsService(), nil)

	poller, err := svc.NewPoller(studentIdentity)
	require.NoError(t, err)
	assert.Equal(t, PollerIdle, poller.State())

	updates, unsubscribe := poller.Subscribe()
	defer unsubscribe()

	poller.Start(context.Background())
	poller.Start(context.Background())
	assert.Equal(t, PollerPolling, poller.State())

	select {
	case snap := <-updates:
		assert.Equal(t, 1, snap.Unread)
		require.Len(t, snap.Pending, 1)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	poller.Stop()
	poller.Stop()
	assert.Equal(t, PollerIdle, poller.State())

	after := backend.tickCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, backend.tickCount())
}

func TestNotificationPollerKeepsSnapshotOnFailure(t *testing.T) {
	backend := &fakeNotificationBackend{unread: 2}
	svc := NewNotificationService(backend, time.Hour, nil, nil)
	poller, err := svc.NewPoller(directorIdentity)
	require.NoError(t, err)

	require.NoError(t, poller.Refresh(context.Background()))
	backend.set(nil, 5, true)
	require.Error(t, poller.Refresh(context.Background()))

	snap, ok := poller.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 2, snap.Unread)
	assert.NotNil(t, snap.Pending)
}

func TestNotificationPollerContinuesAfterFailedTick(t *testing.T) {
	backend := &fakeNotificationBackend{failing: true}
	svc := NewNotificationService(backend, 5*time.Millisecond, nil, nil)
	poller, err := svc.NewPoller(studentIdentity)
	require.NoError(t, err)

	poller.Start(context.Background())
	defer poller.Stop()

	require.Eventually(t, func() bool { return backend.tickCount() >= 2 }, time.Second, time.Millisecond)
	_, ok := poller.Snapshot()
	assert.False(t, ok)

	backend.set(nil, 3, false)
	require.Eventually(t, func() bool {
		snap, ok := poller.Snapshot()
		return ok && snap.Unread == 3
	}, time.Second, time.Millisecond)
}

func TestNotificationServiceRoles(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationBackend{}, 0, nil, nil)
	assert.Equal(t, DefaultPollInterval, svc.Interval())

	_, err := svc.NewPoller(adminIdentity)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	_, err = svc.NewPoller(nil)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	snap, err := svc.Current(context.Background(), studentIdentity)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Unread)

	list, err := svc.List(context.Background(), studentIdentity)
	require.NoError(t, err)
	assert.NotNil(t, list)
}
