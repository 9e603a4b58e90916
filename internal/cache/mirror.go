// Package cache keeps a local SQLite copy of the primary store's tickets.
//
// The copy is only written after the primary confirmed a write, and is
// replaced wholesale by Reconcile. Reads fall back to it when the primary
// is unreachable or no longer has the ticket.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/metrics"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store"
	"giving-hand-api-server/internal/store/sqlstore"
)

// Mirror is a store.Store that reads and writes through to remote and keeps
// local in step with it.
type Mirror struct {
	remote  store.Store
	local   *sqlstore.Store
	metrics *metrics.Metrics
	log     *slog.Logger
}

var _ store.Store = (*Mirror)(nil)

// New returns a Mirror over remote. m may be nil.
func New(remote store.Store, local *sqlstore.Store, m *metrics.Metrics) *Mirror {
	return &Mirror{remote: remote, local: local, metrics: m, log: logging.New("mirror")}
}

func (m *Mirror) Tickets() store.TicketRepository {
	return &mirroredTickets{m: m, remote: m.remote.Tickets(), apply: m.put}
}

func (m *Mirror) Tracking() store.TrackingRepository { return m.remote.Tracking() }
func (m *Mirror) DeliveryRequests() store.DeliveryRequestRepository {
	return m.remote.DeliveryRequests()
}
func (m *Mirror) Users() store.UserRepository         { return m.remote.Users() }
func (m *Mirror) Donations() store.DonationRepository { return m.remote.Donations() }
func (m *Mirror) Proofs() store.ProofRepository       { return m.remote.Proofs() }

// Atomically defers mirror writes until the remote transaction committed.
func (m *Mirror) Atomically(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	var (
		mu      sync.Mutex
		pending []models.FoodTicket
	)
	err := m.remote.Atomically(ctx, func(ctx context.Context, rtx store.Store) error {
		mu.Lock()
		pending = pending[:0] // the driver may retry the callback
		mu.Unlock()
		return fn(ctx, &txMirror{Store: rtx, m: m, buffer: func(t models.FoodTicket) {
			mu.Lock()
			pending = append(pending, t)
			mu.Unlock()
		}})
	})
	if err != nil {
		return err
	}
	for i := range pending {
		m.put(ctx, &pending[i])
	}
	return nil
}

func (m *Mirror) Close(ctx context.Context) error {
	return errors.Join(m.remote.Close(ctx), m.local.Close(ctx))
}

// Reconcile replaces the local tickets with the primary's current set.
func (m *Mirror) Reconcile(ctx context.Context) (int, error) {
	list, err := m.remote.Tickets().List(ctx, store.TicketFilter{})
	if err != nil {
		return 0, err
	}
	if err := m.local.ReplaceTickets(ctx, list); err != nil {
		return 0, err
	}
	return len(list), nil
}

// Run reconciles every interval until ctx is done.
func (m *Mirror) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		n, err := m.Reconcile(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.log.Warn("reconcile failed", "error", err)
			continue
		}
		m.log.Debug("reconciled", "tickets", n)
	}
}

func (m *Mirror) put(ctx context.Context, t *models.FoodTicket) {
	if err := m.local.PutTicket(ctx, t); err != nil {
		m.log.Warn("mirror write failed", "ticket", t.ID, "error", err)
	}
}

func (m *Mirror) fellBack() {
	if m.metrics != nil {
		m.metrics.MirrorFallbacks.Inc()
	}
}

type txMirror struct {
	store.Store
	m      *Mirror
	buffer func(models.FoodTicket)
}

func (tx *txMirror) Tickets() store.TicketRepository {
	return &mirroredTickets{
		m:      tx.m,
		remote: tx.Store.Tickets(),
		apply:  func(_ context.Context, t *models.FoodTicket) { tx.buffer(*t) },
	}
}

func (tx *txMirror) Atomically(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, tx)
}

type mirroredTickets struct {
	m      *Mirror
	remote store.TicketRepository
	apply  func(context.Context, *models.FoodTicket)
}

func (r *mirroredTickets) Get(ctx context.Context, id string) (*models.FoodTicket, error) {
	t, err := r.remote.Get(ctx, id)
	if err == nil {
		return t, nil
	}
	local, lerr := r.m.local.Tickets().Get(ctx, id)
	if lerr != nil {
		return nil, err
	}
	r.m.log.Info("served from mirror", "ticket", id, "cause", err)
	r.m.fellBack()
	return local, nil
}

func (r *mirroredTickets) List(ctx context.Context, f store.TicketFilter) ([]models.FoodTicket, error) {
	list, err := r.remote.List(ctx, f)
	if err == nil {
		return list, nil
	}
	local, lerr := r.m.local.Tickets().List(ctx, f)
	if lerr != nil {
		return nil, err
	}
	r.m.log.Warn("listing served from mirror", "cause", err)
	r.m.fellBack()
	return local, nil
}

func (r *mirroredTickets) Insert(ctx context.Context, t *models.FoodTicket) error {
	if err := r.remote.Insert(ctx, t); err != nil {
		return err
	}
	r.apply(ctx, t)
	return nil
}

func (r *mirroredTickets) Update(ctx context.Context, t *models.FoodTicket) error {
	if err := r.remote.Update(ctx, t); err != nil {
		return err
	}
	r.apply(ctx, t)
	return nil
}
