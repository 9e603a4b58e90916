// Package ticket holds the food ticket state machine.
//
// Every function here is pure: it validates the requested change against the
// ticket's current state and the acting party, mutates the ticket only when
// the change is legal, and leaves it untouched otherwise. Persisting the
// result is the caller's job.
package ticket

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"giving-hand-api-server/internal/models"
)

var (
	ErrInvalidTicket     = errors.New("invalid ticket")
	ErrInvalidTransition = errors.New("cannot change ticket state")
	ErrNotAllowed        = errors.New("not allowed to act on this ticket")
	ErrMethodNotOffered  = errors.New("delivery method is not offered for this ticket")
	ErrMethodAlreadySet  = errors.New("delivery method already confirmed")
	ErrRequestPending    = errors.New("organization delivery request is still pending")
)

func newErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Draft is what a donor organization fills in when posting food.
type Draft struct {
	FoodType   string
	Category   models.Category
	WeightKg   float64
	Pieces     int
	Notes      string
	ExpiryDate time.Time
	PickupFrom string
	PickupTo   string
	Capability models.DeliveryCapability
}

const clockLayout = "15:04"

// Validate checks the fields a donor must get right before anything is stored.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.FoodType) == "" {
		return fmt.Errorf("%w: food type is required", ErrInvalidTicket)
	}
	if _, err := models.AsCategory(string(d.Category)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTicket, err)
	}
	if _, err := models.AsDeliveryCapability(string(d.Capability)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTicket, err)
	}
	if !(d.WeightKg > 0) {
		return fmt.Errorf("%w: weight must be positive", ErrInvalidTicket)
	}
	if d.Pieces < 0 {
		return fmt.Errorf("%w: piece count must be positive", ErrInvalidTicket)
	}
	if d.ExpiryDate.IsZero() {
		return fmt.Errorf("%w: expiry date is required", ErrInvalidTicket)
	}

	var from, to time.Time
	var err error
	if d.PickupFrom != "" {
		if from, err = time.Parse(clockLayout, d.PickupFrom); err != nil {
			return fmt.Errorf("%w: pickup from must be HH:MM", ErrInvalidTicket)
		}
	}
	if d.PickupTo != "" {
		if to, err = time.Parse(clockLayout, d.PickupTo); err != nil {
			return fmt.Errorf("%w: pickup to must be HH:MM", ErrInvalidTicket)
		}
	}
	if d.PickupFrom != "" && d.PickupTo != "" && to.Before(from) {
		return fmt.Errorf("%w: pickup window ends before it starts", ErrInvalidTicket)
	}
	return nil
}

// KindOf decides which sub-flow a freshly posted ticket enters.
func KindOf(d Draft, now time.Time) models.TicketKind {
	if d.Capability == models.CapabilityFactoryOnly ||
		strings.EqualFold(strings.TrimSpace(d.FoodType), models.ExpirySentinel) ||
		!d.ExpiryDate.After(now) {
		return models.KindConversion
	}
	return models.KindDonation
}

// New builds a ticket posted by org. Expiry in the past is legal: such
// tickets go straight to the factory sub-flow.
func New(id string, d Draft, org models.Actor, now time.Time) (*models.FoodTicket, error) {
	if org.Role != models.RoleOrganization {
		return nil, fmt.Errorf("%w: only organizations post tickets", ErrNotAllowed)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	// Stores compare expiry instants; offsets from clients must not leak in.
	now = now.UTC()
	d.ExpiryDate = d.ExpiryDate.UTC()

	t := &models.FoodTicket{
		ID:                 id,
		OrganizationID:     org.ID,
		OrganizationName:   org.Name,
		FoodType:           strings.TrimSpace(d.FoodType),
		Category:           d.Category,
		WeightKg:           d.WeightKg,
		Pieces:             d.Pieces,
		Notes:              d.Notes,
		ExpiryDate:         d.ExpiryDate,
		PickupFrom:         d.PickupFrom,
		PickupTo:           d.PickupTo,
		DeliveryCapability: d.Capability,
		Kind:               KindOf(d, now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if t.Kind == models.KindConversion {
		t.Status = models.StatusExpired
		t.ConversionStatus = models.ConversionPending
	} else {
		t.Status = models.StatusPending
	}
	return t, nil
}

// AvailableToRecipients reports whether charities and guests may still claim t.
func AvailableToRecipients(t *models.FoodTicket, now time.Time) bool {
	return t.Kind == models.KindDonation && t.Status == models.StatusPending && !t.Expired(now)
}

// AvailableToFactories reports whether a factory may still claim t.
func AvailableToFactories(t *models.FoodTicket) bool {
	return t.Kind == models.KindConversion && t.Status == models.StatusExpired
}

// Terminal reports whether no further lifecycle action can change t.
func Terminal(t *models.FoodTicket) bool {
	return t.Status == models.StatusDeclined || t.ConversionStatus == models.ConversionConverted
}

// Expire moves an overdue donation ticket into the factory sub-flow.
func Expire(t *models.FoodTicket, now time.Time) error {
	if t.Kind != models.KindDonation || t.Status != models.StatusPending {
		return newErrInvalidTransition(string(t.Status), string(models.StatusExpired))
	}
	if !t.Expired(now) {
		return fmt.Errorf("%w: food is still fresh until %s", ErrInvalidTransition, t.ExpiryDate.Format(time.RFC3339))
	}
	t.Kind = models.KindConversion
	t.Status = models.StatusExpired
	t.ConversionStatus = models.ConversionPending
	t.UpdatedAt = now
	return nil
}
