package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

// PollerState is the notification poller lifecycle state.
type PollerState string

const (
	PollerIdle    PollerState = "IDLE"
	PollerPolling PollerState = "POLLING"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 30 * time.Second

// NotificationSnapshot is the latest pending notifications and unread count.
type NotificationSnapshot struct {
	Pending   []models.Notification `json:"pending"`
	Unread    int                   `json:"unread"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

type notificationBackend interface {
	Notifications(ctx context.Context, cedula string) ([]models.Notification, error)
	PendingNotifications(ctx context.Context, cedula string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, cedula string) (int, error)
}

// NotificationPoller periodically refreshes the notification snapshot of
// one user. A failed tick keeps the previous snapshot and polling goes on.
type NotificationPoller struct {
	backend  notificationBackend
	cedula   string
	interval time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time

	snapshot atomic.Pointer[NotificationSnapshot]

	mu          sync.Mutex
	state       PollerState
	cancel      context.CancelFunc
	done        chan struct{}
	subscribers map[chan NotificationSnapshot]struct{}
}

// State returns the lifecycle state.
func (p *NotificationPoller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start moves the poller to POLLING: it ticks immediately and then every
// interval until Stop or ctx is done. Starting a polling poller is a no-op.
func (p *NotificationPoller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PollerPolling {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.state = PollerPolling
	p.cancel = cancel
	p.done = make(chan struct{})
	p.metrics.PollerStarted()
	go p.loop(ctx, p.done)
}

// Stop returns the poller to IDLE and waits for the loop to exit.
func (p *NotificationPoller) Stop() {
	p.mu.Lock()
	if p.state != PollerPolling {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.state = PollerIdle
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	<-done
	p.metrics.PollerStopped()
}

// Snapshot returns the latest successful snapshot.
func (p *NotificationPoller) Snapshot() (NotificationSnapshot, bool) {
	snap := p.snapshot.Load()
	if snap == nil {
		return NotificationSnapshot{}, false
	}
	return *snap, true
}

// Subscribe delivers every new snapshot. Slow subscribers only see the
// newest one. The returned func unsubscribes.
func (p *NotificationPoller) Subscribe() (<-chan NotificationSnapshot, func()) {
	ch := make(chan NotificationSnapshot, 1)
	p.mu.Lock()
	p.subscribers[ch] = struct{}{}
	p.mu.Unlock()
	return ch, func() {
		p.mu.Lock()
		delete(p.subscribers, ch)
		p.mu.Unlock()
	}
}

// Refresh runs one tick outside the schedule, e.g. after marking a
// notification as read.
func (p *NotificationPoller) Refresh(ctx context.Context) error {
	return p.tick(ctx)
}

func (p *NotificationPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	_ = p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.tick(ctx)
		}
	}
}

func (p *NotificationPoller) tick(ctx context.Context) error {
	var (
		wg         sync.WaitGroup
		pending    []models.Notification
		unread     int
		pendingErr error
		countErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		pending, pendingErr = p.backend.PendingNotifications(ctx, p.cedula)
	}()
	go func() {
		defer wg.Done()
		unread, countErr = p.backend.UnreadCount(ctx, p.cedula)
	}()
	wg.Wait()

	if err := firstError(pendingErr, countErr); err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("notification poll failed", zap.String("cedula", p.cedula), zap.Error(err))
			p.metrics.RecordPollTick(false)
		}
		return err
	}

	snap := &NotificationSnapshot{Pending: orEmpty(pending), Unread: unread, UpdatedAt: p.now().UTC()}
	p.snapshot.Store(snap)
	p.metrics.RecordPollTick(true)
	p.broadcast(*snap)
	return nil
}

func (p *NotificationPoller) broadcast(snap NotificationSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// NotificationService lists notifications and creates pollers.
type NotificationService struct {
	backend  notificationBackend
	interval time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewNotificationService constructs the service.
func NewNotificationService(backend notificationBackend, interval time.Duration, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{backend: backend, interval: interval, metrics: metrics, logger: logger, now: time.Now}
}

// Interval is the configured poll interval.
func (s *NotificationService) Interval() time.Duration {
	return s.interval
}

// NewPoller returns an IDLE poller for identity. Only roles that show the
// notification widget get one.
func (s *NotificationService) NewPoller(identity *models.Identity) (*NotificationPoller, error) {
	if identity == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if identity.Rol != models.RoleStudent && identity.Rol != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "notifications are not available for this role")
	}
	return &NotificationPoller{
		backend:     s.backend,
		cedula:      identity.Cedula,
		interval:    s.interval,
		metrics:     s.metrics,
		logger:      s.logger.With(zap.String("component", "notification_poller")),
		now:         s.now,
		state:       PollerIdle,
		subscribers: make(map[chan NotificationSnapshot]struct{}),
	}, nil
}

// List returns every notification of the user.
func (s *NotificationService) List(ctx context.Context, identity *models.Identity) ([]models.Notification, error) {
	if identity == nil {
		return nil, appErrors.ErrUnauthorized
	}
	notifications, err := s.backend.Notifications(ctx, identity.Cedula)
	if err != nil {
		return nil, err
	}
	return orEmpty(notifications), nil
}

// Current polls once and returns the snapshot.
func (s *NotificationService) Current(ctx context.Context, identity *models.Identity) (NotificationSnapshot, error) {
	poller, err := s.NewPoller(identity)
	if err != nil {
		return NotificationSnapshot{}, err
	}
	if err := poller.Refresh(ctx); err != nil {
		return NotificationSnapshot{}, err
	}
	snap, _ := poller.Snapshot()
	return snap, nil
}
