package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/socket"
	"giving-hand-api-server/internal/store"
	"giving-hand-api-server/internal/ticket"
)

// ExpireOverdue hands every pending donation ticket whose food expired to
// the factory flow. Tickets claimed concurrently are skipped.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.now()
	overdue, err := s.store.Tickets().List(ctx, store.TicketFilter{
		Kind:      models.KindDonation,
		Statuses:  []models.TicketStatus{models.StatusPending},
		ExpiresBy: now,
	})
	if err != nil {
		return 0, fmt.Errorf("list overdue tickets: %w", err)
	}

	expired := 0
	for i := range overdue {
		t := &overdue[i]
		if err := ticket.Expire(t, now); err != nil {
			continue
		}
		err := s.store.Tickets().Update(ctx, t)
		s.count("expire", err)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrNotFound):
			continue
		default:
			return expired, fmt.Errorf("expire %s: %w", t.ID, err)
		}
		expired++
		if s.metrics != nil {
			s.metrics.Expired.Inc()
		}
		s.notify(t.OrganizationID, socket.EventTicketExpired, t,
			fmt.Sprintf("Your %s expired and is now offered to factories", t.FoodType))
	}
	if expired > 0 {
		s.log.Info("expired overdue tickets", "count", expired)
	}
	return expired, nil
}

// RunSweep calls ExpireOverdue every interval until ctx is done.
func (s *Service) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if _, err := s.ExpireOverdue(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("expiry sweep failed", "error", err)
		}
	}
}
