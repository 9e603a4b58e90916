package ticket

import (
	"fmt"
	"time"

	"giving-hand-api-server/internal/models"
)

// Outcome tells the caller which side effects a delivery-method confirmation needs.
type Outcome int

const (
	// A self-pickup or shipping choice was recorded.
	MethodConfirmed Outcome = iota

	// An organization-delivery request was opened (or re-opened after a decline).
	DeliveryRequested

	// The same organization-delivery request is already waiting. Nothing changed.
	AlreadyRequested
)

func checkRecipient(t *models.FoodTicket, actor models.Actor) error {
	if !actor.Role.Recipient() {
		return fmt.Errorf("%w: %s cannot take donation tickets", ErrNotAllowed, actor.Role)
	}
	if t.Kind != models.KindDonation {
		return fmt.Errorf("%w: ticket %s is for factories only", ErrNotAllowed, t.ID)
	}
	return nil
}

// Accept lets a charity or guest claim a pending donation ticket.
func Accept(t *models.FoodTicket, actor models.Actor, now time.Time) error {
	if err := checkRecipient(t, actor); err != nil {
		return err
	}
	if t.Status != models.StatusPending {
		return newErrInvalidTransition(string(t.Status), string(models.StatusAccepted))
	}
	if t.Expired(now) {
		return fmt.Errorf("%w: food expired at %s", ErrInvalidTransition, t.ExpiryDate.Format(time.RFC3339))
	}
	t.Status = models.StatusAccepted
	t.AcceptedByID = actor.ID
	t.AcceptedByName = actor.Name
	t.UpdatedAt = now
	return nil
}

// Decline turns a pending donation ticket down for good.
func Decline(t *models.FoodTicket, actor models.Actor, now time.Time) error {
	if err := checkRecipient(t, actor); err != nil {
		return err
	}
	if t.Status != models.StatusPending {
		return newErrInvalidTransition(string(t.Status), string(models.StatusDeclined))
	}
	t.Status = models.StatusDeclined
	t.UpdatedAt = now
	return nil
}

// OfferedDeliveryMethods lists what a recipient may choose for a ticket
// posted with the given capability.
func OfferedDeliveryMethods(c models.DeliveryCapability) []models.DeliveryMethod {
	switch c {
	case models.CapabilitySelfDelivery, models.CapabilityAcceptsRequests:
		return []models.DeliveryMethod{
			models.MethodSelfPickup, models.MethodOrganizationDelivery, models.MethodShipping,
		}
	case models.CapabilityNone:
		return []models.DeliveryMethod{models.MethodSelfPickup, models.MethodShipping}
	default:
		// factory-only food never reaches recipients
		return nil
	}
}

func offered(c models.DeliveryCapability, m models.DeliveryMethod) bool {
	for _, o := range OfferedDeliveryMethods(c) {
		if o == m {
			return true
		}
	}
	return false
}

// SelectDeliveryMethod records how accepted food travels to its recipient.
//
// Only the recipient who accepted the ticket may choose. While an
// organization-delivery request is pending the choice is frozen; a repeated
// request is reported as AlreadyRequested. A declined request may be
// replaced by any offered method, including a new request.
func SelectDeliveryMethod(t *models.FoodTicket, actor models.Actor, m models.DeliveryMethod, now time.Time) (Outcome, error) {
	if err := checkRecipient(t, actor); err != nil {
		return 0, err
	}
	if t.Status != models.StatusAccepted {
		return 0, fmt.Errorf("%w: ticket is %s, not accepted", ErrInvalidTransition, t.Status)
	}
	if t.AcceptedByID != actor.ID {
		return 0, fmt.Errorf("%w: ticket was accepted by someone else", ErrNotAllowed)
	}
	if !offered(t.DeliveryCapability, m) {
		return 0, fmt.Errorf("%w: %s with capability %s", ErrMethodNotOffered, m, t.DeliveryCapability)
	}

	switch t.DeliveryMethod {
	case "":
	case models.MethodOrganizationDelivery:
		switch t.OrganizationDeliveryStatus {
		case models.OrgDeliveryPending:
			if m == models.MethodOrganizationDelivery {
				return AlreadyRequested, nil
			}
			return 0, ErrRequestPending
		case models.OrgDeliveryDeclined:
		default:
			return 0, fmt.Errorf("%w: %s", ErrMethodAlreadySet, t.DeliveryMethod)
		}
	default:
		return 0, fmt.Errorf("%w: %s", ErrMethodAlreadySet, t.DeliveryMethod)
	}

	t.DeliveryMethod = m
	t.UpdatedAt = now
	if m == models.MethodOrganizationDelivery {
		t.OrganizationDeliveryStatus = models.OrgDeliveryPending
		return DeliveryRequested, nil
	}
	t.OrganizationDeliveryStatus = ""
	return MethodConfirmed, nil
}

// ResolveDeliveryRequest is the donor organization's answer to a pending
// organization-delivery request. A decline leaves the ticket accepted.
func ResolveDeliveryRequest(t *models.FoodTicket, actor models.Actor, approve bool, now time.Time) error {
	if actor.Role != models.RoleOrganization || actor.ID != t.OrganizationID {
		return fmt.Errorf("%w: only the donor organization answers delivery requests", ErrNotAllowed)
	}
	to := models.OrgDeliveryDeclined
	if approve {
		to = models.OrgDeliveryAccepted
	}
	if t.Status != models.StatusAccepted ||
		t.DeliveryMethod != models.MethodOrganizationDelivery ||
		t.OrganizationDeliveryStatus != models.OrgDeliveryPending {
		return newErrInvalidTransition("organization delivery "+string(t.OrganizationDeliveryStatus), string(to))
	}
	if !t.DeliveryCapability.OrganizationDelivers() {
		return fmt.Errorf("%w: organization does not deliver", ErrInvalidTransition)
	}
	t.OrganizationDeliveryStatus = to
	t.UpdatedAt = now
	return nil
}
