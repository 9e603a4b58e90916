// Package store defines the persistence seam of the service.
//
// Two implementations exist: mongostore (the hosted primary) and sqlstore
// (embedded SQLite, also used as the local mirror). Callers only see these
// interfaces; the serialization format stays behind them.
package store

import (
	"context"
	"errors"
	"time"

	"giving-hand-api-server/internal/models"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write loses a race: the row changed
	// since the caller read it, or a unique key is already taken.
	ErrConflict = errors.New("conflict")
)

// TicketFilter selects tickets. Zero fields do not constrain.
type TicketFilter struct {
	OrganizationID string
	AcceptedByID   string
	FactoryID      string
	Kind           models.TicketKind
	Statuses       []models.TicketStatus

	// Only tickets whose expiry is strictly after this instant.
	ExpiresAfter time.Time
	// Only tickets whose expiry is at or before this instant.
	ExpiresBy time.Time
}

type TicketRepository interface {
	Get(ctx context.Context, id string) (*models.FoodTicket, error)
	List(ctx context.Context, filter TicketFilter) ([]models.FoodTicket, error)
	Insert(ctx context.Context, t *models.FoodTicket) error

	// Update replaces the stored ticket if its version still equals
	// t.Version, then bumps t.Version. A stale version yields ErrConflict.
	Update(ctx context.Context, t *models.FoodTicket) error
}

type TrackingFilter struct {
	TicketID       string
	OrganizationID string
	RecipientID    string
	Status         models.TrackingStatus
}

type TrackingRepository interface {
	Append(ctx context.Context, r *models.TrackingRecord) error
	Get(ctx context.Context, id string) (*models.TrackingRecord, error)
	List(ctx context.Context, filter TrackingFilter) ([]models.TrackingRecord, error)
	UpdateStatus(ctx context.Context, id string, status models.TrackingStatus, at time.Time) error
	AttachProof(ctx context.Context, id string, url string, at time.Time) error
}

type DeliveryRequestFilter struct {
	OrganizationID string
	RecipientID    string
	Status         models.DeliveryRequestStatus
}

type DeliveryRequestRepository interface {
	GetByTicket(ctx context.Context, ticketID string) (*models.DeliveryRequest, error)
	List(ctx context.Context, filter DeliveryRequestFilter) ([]models.DeliveryRequest, error)

	// Upsert inserts r, or replaces the request already stored for r.TicketID.
	Upsert(ctx context.Context, r *models.DeliveryRequest) error
}

type UserRepository interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, role models.Role) ([]models.User, error)
	Insert(ctx context.Context, u *models.User) error
	Count(ctx context.Context) (int64, error)
}

type DonationRepository interface {
	Insert(ctx context.Context, d *models.MoneyDonation) error
	List(ctx context.Context) ([]models.MoneyDonation, error)
}

type ProofRepository interface {
	Insert(ctx context.Context, p *models.DeliveryProof) error
	ListByTracking(ctx context.Context, trackingID string) ([]models.DeliveryProof, error)
}

// Store bundles the repositories of one backend.
type Store interface {
	Tickets() TicketRepository
	Tracking() TrackingRepository
	DeliveryRequests() DeliveryRequestRepository
	Users() UserRepository
	Donations() DonationRepository
	Proofs() ProofRepository

	// Atomically runs fn against a Store whose writes commit together or not
	// at all, when the backend supports it.
	Atomically(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Close(ctx context.Context) error
}
