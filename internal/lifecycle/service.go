// Package lifecycle runs ticket state changes against the store and fans
// out their side effects: tracking records, delivery requests, push events
// and metrics.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/metrics"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/socket"
	"giving-hand-api-server/internal/store"
	"giving-hand-api-server/internal/ticket"
)

// Notifier delivers push events to a user. *socket.Hub implements it.
type Notifier interface {
	Publish(userID string, ev socket.Event) error
}

type Service struct {
	store    store.Store
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
	log      *slog.Logger
}

type Option func(*Service)

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   func() time.Time { return time.Now().UTC() },
		log:   logging.New("lifecycle"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns one ticket.
func (s *Service) Get(ctx context.Context, id string) (*models.FoodTicket, error) {
	return s.store.Tickets().Get(ctx, id)
}

// CreateTicket posts a new ticket for org.
func (s *Service) CreateTicket(ctx context.Context, org models.Actor, d ticket.Draft) (*models.FoodTicket, error) {
	t, err := ticket.New(models.NewID(models.PrefixTicket), d, org, s.now())
	if err != nil {
		s.count("create", err)
		return nil, err
	}
	err = s.store.Tickets().Insert(ctx, t)
	s.count("create", err)
	if err != nil {
		return nil, fmt.Errorf("save ticket: %w", err)
	}
	s.log.Info("ticket posted", "ticket", t.ID, "organization", org.ID, "kind", t.Kind)
	return t, nil
}

// mutate loads a ticket, applies change and writes it back with a version check.
func (s *Service) mutate(ctx context.Context, action, id string, change func(*models.FoodTicket) error) (*models.FoodTicket, error) {
	t, err := s.store.Tickets().Get(ctx, id)
	if err != nil {
		s.count(action, err)
		return nil, err
	}
	if err := change(t); err != nil {
		s.count(action, err)
		return nil, err
	}
	err = s.store.Tickets().Update(ctx, t)
	s.count(action, err)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Accept claims a pending donation ticket for a charity or guest.
func (s *Service) Accept(ctx context.Context, actor models.Actor, id string) (*models.FoodTicket, error) {
	t, err := s.mutate(ctx, "accept", id, func(t *models.FoodTicket) error {
		return ticket.Accept(t, actor, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.notify(t.OrganizationID, socket.EventTicketAccepted, t,
		fmt.Sprintf("%s accepted your %s donation", actor.Name, t.FoodType))
	return t, nil
}

func (s *Service) Decline(ctx context.Context, actor models.Actor, id string) (*models.FoodTicket, error) {
	t, err := s.mutate(ctx, "decline", id, func(t *models.FoodTicket) error {
		return ticket.Decline(t, actor, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.notify(t.OrganizationID, socket.EventTicketDeclined, t,
		fmt.Sprintf("%s declined your %s donation", actor.Name, t.FoodType))
	return t, nil
}

// DeliveryMethods lists the methods a recipient may pick for ticket id.
func (s *Service) DeliveryMethods(ctx context.Context, actor models.Actor, id string) ([]models.DeliveryMethod, error) {
	t, err := s.store.Tickets().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.Recipient() || t.Kind != models.KindDonation {
		return nil, fmt.Errorf("%w: delivery methods are for recipients of donation tickets", ticket.ErrNotAllowed)
	}
	methods := ticket.OfferedDeliveryMethods(t.DeliveryCapability)
	if methods == nil {
		methods = []models.DeliveryMethod{}
	}
	return methods, nil
}

// SelectDeliveryMethod confirms how accepted food reaches the recipient.
// The ticket, its tracking record and any delivery request are written together.
func (s *Service) SelectDeliveryMethod(ctx context.Context, actor models.Actor, id string, m models.DeliveryMethod, fee float64) (ticket.Outcome, *models.FoodTicket, error) {
	var (
		outcome ticket.Outcome
		out     *models.FoodTicket
	)
	err := s.store.Atomically(ctx, func(ctx context.Context, tx store.Store) error {
		t, err := tx.Tickets().Get(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		if outcome, err = ticket.SelectDeliveryMethod(t, actor, m, now); err != nil {
			return err
		}
		out = t
		if outcome == ticket.AlreadyRequested {
			return nil
		}
		if err := tx.Tickets().Update(ctx, t); err != nil {
			return err
		}
		if err := appendTracking(ctx, tx, t, models.TrackingPending, now); err != nil {
			return err
		}
		if outcome == ticket.DeliveryRequested {
			req := &models.DeliveryRequest{
				ID:             models.NewID(models.PrefixDeliveryRequest),
				TicketID:       t.ID,
				OrganizationID: t.OrganizationID,
				RecipientID:    actor.ID,
				RecipientName:  actor.Name,
				Status:         models.DeliveryRequestPending,
				Fee:            fee,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.DeliveryRequests().Upsert(ctx, req); err != nil {
				return fmt.Errorf("save delivery request: %w", err)
			}
		}
		return nil
	})
	s.count("select_method", err)
	if err != nil {
		return 0, nil, err
	}

	if outcome == ticket.DeliveryRequested {
		s.notify(out.OrganizationID, socket.EventDeliveryRequested, out,
			fmt.Sprintf("%s asks you to deliver %s", actor.Name, out.FoodType))
	}
	return outcome, out, nil
}

// ResolveDeliveryRequest records the donor organization's answer. An
// approval starts the delivery, so it appends an in-transit tracking record.
func (s *Service) ResolveDeliveryRequest(ctx context.Context, actor models.Actor, ticketID string, approve bool) (*models.FoodTicket, error) {
	var out *models.FoodTicket
	err := s.store.Atomically(ctx, func(ctx context.Context, tx store.Store) error {
		t, err := tx.Tickets().Get(ctx, ticketID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := ticket.ResolveDeliveryRequest(t, actor, approve, now); err != nil {
			return err
		}
		if err := tx.Tickets().Update(ctx, t); err != nil {
			return err
		}

		req, err := tx.DeliveryRequests().GetByTicket(ctx, ticketID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if req == nil {
			req = &models.DeliveryRequest{
				ID:             models.NewID(models.PrefixDeliveryRequest),
				TicketID:       t.ID,
				OrganizationID: t.OrganizationID,
				RecipientID:    t.AcceptedByID,
				RecipientName:  t.AcceptedByName,
				CreatedAt:      now,
			}
		}
		req.Status = models.DeliveryRequestDeclined
		if approve {
			req.Status = models.DeliveryRequestAccepted
		}
		req.UpdatedAt = now
		if err := tx.DeliveryRequests().Upsert(ctx, req); err != nil {
			return fmt.Errorf("save delivery request: %w", err)
		}

		if approve {
			if err := appendTracking(ctx, tx, t, models.TrackingInTransit, now); err != nil {
				return err
			}
		}
		out = t
		return nil
	})
	s.count("resolve_request", err)
	if err != nil {
		return nil, err
	}

	verb := "declined"
	if approve {
		verb = "accepted"
	}
	s.notify(out.AcceptedByID, socket.EventDeliveryRequestResolved, out,
		fmt.Sprintf("%s %s your delivery request for %s", out.OrganizationName, verb, out.FoodType))
	return out, nil
}

// FactoryAccept claims a conversion ticket. note is stored as given.
func (s *Service) FactoryAccept(ctx context.Context, actor models.Actor, id, note string) (*models.FoodTicket, error) {
	t, err := s.mutate(ctx, "factory_accept", id, func(t *models.FoodTicket) error {
		return ticket.FactoryAccept(t, actor, note, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.notify(t.OrganizationID, socket.EventFactoryTicketClaimed, t,
		fmt.Sprintf("%s will collect your expired %s", actor.Name, t.FoodType))
	return t, nil
}

func (s *Service) FactoryDecline(ctx context.Context, actor models.Actor, id string) (*models.FoodTicket, error) {
	t, err := s.mutate(ctx, "factory_decline", id, func(t *models.FoodTicket) error {
		return ticket.FactoryDecline(t, actor, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.notify(t.OrganizationID, socket.EventTicketDeclined, t,
		fmt.Sprintf("%s declined your expired %s", actor.Name, t.FoodType))
	return t, nil
}

func (s *Service) Convert(ctx context.Context, actor models.Actor, id string) (*models.FoodTicket, error) {
	t, err := s.mutate(ctx, "convert", id, func(t *models.FoodTicket) error {
		return ticket.Convert(t, actor, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.notify(t.OrganizationID, socket.EventTicketConverted, t,
		fmt.Sprintf("%s converted your %s", actor.Name, t.FoodType))
	return t, nil
}

// appendTracking adds the next entry of t's tracking log. Entries written
// within the same instant keep their order through Seq.
func appendTracking(ctx context.Context, tx store.Store, t *models.FoodTicket, status models.TrackingStatus, now time.Time) error {
	prior, err := tx.Tracking().List(ctx, store.TrackingFilter{TicketID: t.ID})
	if err != nil {
		return fmt.Errorf("read tracking log: %w", err)
	}
	if err := tx.Tracking().Append(ctx, trackingRecord(t, len(prior)+1, status, now)); err != nil {
		return fmt.Errorf("append tracking record: %w", err)
	}
	return nil
}

func trackingRecord(t *models.FoodTicket, seq int, status models.TrackingStatus, now time.Time) *models.TrackingRecord {
	return &models.TrackingRecord{
		ID:               models.NewID(models.PrefixTracking),
		TicketID:         t.ID,
		Seq:              seq,
		OrganizationID:   t.OrganizationID,
		OrganizationName: t.OrganizationName,
		RecipientID:      t.AcceptedByID,
		Category:         t.Category,
		Quantity:         t.QuantityText(),
		DeliveryMethod:   t.DeliveryMethod,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *Service) notify(userID, event string, t *models.FoodTicket, msg string) {
	if s.notifier == nil {
		return
	}
	ev := socket.Event{Type: event, TicketID: t.ID, Message: msg, Status: string(t.Status), At: s.now()}
	if err := s.notifier.Publish(userID, ev); err != nil {
		s.log.Warn("push failed", "user", userID, "event", event, "error", err)
	}
}

func (s *Service) count(action string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Transitions.WithLabelValues(action, result(err)).Inc()
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrConflict):
		return "conflict"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, ticket.ErrInvalidTicket),
		errors.Is(err, ticket.ErrInvalidTransition),
		errors.Is(err, ticket.ErrNotAllowed),
		errors.Is(err, ticket.ErrMethodNotOffered),
		errors.Is(err, ticket.ErrMethodAlreadySet),
		errors.Is(err, ticket.ErrRequestPending):
		return "rejected"
	default:
		return "error"
	}
}
