package lifecycle

import (
	"context"

	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store"
)

// AvailableToRecipients lists pending donation tickets whose food is still fresh.
func (s *Service) AvailableToRecipients(ctx context.Context) ([]models.FoodTicket, error) {
	return s.store.Tickets().List(ctx, store.TicketFilter{
		Kind:         models.KindDonation,
		Statuses:     []models.TicketStatus{models.StatusPending},
		ExpiresAfter: s.now(),
	})
}

// PostedBy lists every ticket an organization posted.
func (s *Service) PostedBy(ctx context.Context, orgID string) ([]models.FoodTicket, error) {
	return s.store.Tickets().List(ctx, store.TicketFilter{OrganizationID: orgID})
}

// AcceptedBy lists the donation tickets a recipient claimed.
func (s *Service) AcceptedBy(ctx context.Context, recipientID string) ([]models.FoodTicket, error) {
	return s.store.Tickets().List(ctx, store.TicketFilter{AcceptedByID: recipientID})
}

// FactoryQueue lists conversion tickets still up for grabs followed by the
// ones factoryID already acted on.
func (s *Service) FactoryQueue(ctx context.Context, factoryID string) ([]models.FoodTicket, error) {
	open, err := s.store.Tickets().List(ctx, store.TicketFilter{
		Kind:     models.KindConversion,
		Statuses: []models.TicketStatus{models.StatusExpired},
	})
	if err != nil {
		return nil, err
	}
	mine, err := s.store.Tickets().List(ctx, store.TicketFilter{
		Kind:      models.KindConversion,
		FactoryID: factoryID,
	})
	if err != nil {
		return nil, err
	}
	return append(open, mine...), nil
}

// All lists every ticket, newest first.
func (s *Service) All(ctx context.Context) ([]models.FoodTicket, error) {
	return s.store.Tickets().List(ctx, store.TicketFilter{})
}
