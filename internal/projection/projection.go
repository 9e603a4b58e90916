// Package projection derives read-only views from ticket state: per-user
// notifications, the organizations a recipient can order from, and the
// delivery logs shown to donors. Nothing here is stored separately.
package projection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store"
	"giving-hand-api-server/internal/ticket"
)

type Views struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store, now func() time.Time) *Views {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Views{store: st, now: now}
}

// Notification kinds.
const (
	KindNewDonation       = "new_donation"
	KindTicketAccepted    = "ticket_accepted"
	KindTicketDeclined    = "ticket_declined"
	KindDeliveryRequested = "delivery_requested"
	KindDeliveryApproved  = "delivery_approved"
	KindDeliveryDeclined  = "delivery_declined"
	KindConversionOpen    = "conversion_available"
	KindFactoryClaimed    = "factory_claimed"
	KindConverted         = "ticket_converted"
	KindExpired           = "ticket_expired"
)

type Notification struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	TicketID string    `json:"ticketID"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

func note(kind string, t *models.FoodTicket, msg string) Notification {
	return Notification{
		ID:       kind + ":" + t.ID,
		Kind:     kind,
		TicketID: t.ID,
		Message:  msg,
		At:       t.UpdatedAt,
	}
}

// Notifications lists what actor should be told about, newest first.
func (v *Views) Notifications(ctx context.Context, actor models.Actor) ([]Notification, error) {
	var (
		list []Notification
		err  error
	)
	switch {
	case actor.Role == models.RoleOrganization:
		list, err = v.organizationNotes(ctx, actor)
	case actor.Role.Recipient():
		list, err = v.recipientNotes(ctx, actor)
	case actor.Role == models.RoleFactory:
		list, err = v.factoryNotes(ctx, actor)
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Notification{}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].At.After(list[j].At) })
	return list, nil
}

func (v *Views) organizationNotes(ctx context.Context, actor models.Actor) ([]Notification, error) {
	posted, err := v.store.Tickets().List(ctx, store.TicketFilter{OrganizationID: actor.ID})
	if err != nil {
		return nil, err
	}
	out := []Notification{}
	for i := range posted {
		t := &posted[i]
		switch {
		case t.Kind == models.KindDonation && t.Status == models.StatusAccepted:
			out = append(out, note(KindTicketAccepted, t, fmt.Sprintf("%s accepted your %s", t.AcceptedByName, t.FoodType)))
			if t.OrganizationDeliveryStatus == models.OrgDeliveryPending {
				n := note(KindDeliveryRequested, t, fmt.Sprintf("%s asks you to deliver %s", t.AcceptedByName, t.FoodType))
				out = append(out, n)
			}
		case t.Kind == models.KindDonation && t.Status == models.StatusDeclined:
			out = append(out, note(KindTicketDeclined, t, fmt.Sprintf("Your %s was declined", t.FoodType)))
		case t.Kind == models.KindConversion && t.ConversionStatus == models.ConversionConverted:
			out = append(out, note(KindConverted, t, fmt.Sprintf("%s converted your %s", t.FactoryName, t.FoodType)))
		case t.Kind == models.KindConversion && t.Status == models.StatusAccepted:
			out = append(out, note(KindFactoryClaimed, t, fmt.Sprintf("%s will collect your %s", t.FactoryName, t.FoodType)))
		case t.Kind == models.KindConversion && t.Status == models.StatusDeclined:
			out = append(out, note(KindTicketDeclined, t, fmt.Sprintf("%s declined your expired %s", t.FactoryName, t.FoodType)))
		case ticket.AvailableToFactories(t):
			out = append(out, note(KindExpired, t, fmt.Sprintf("Your %s expired and is offered to factories", t.FoodType)))
		}
	}
	return out, nil
}

func (v *Views) recipientNotes(ctx context.Context, actor models.Actor) ([]Notification, error) {
	now := v.now()
	available, err := v.store.Tickets().List(ctx, store.TicketFilter{
		Kind:         models.KindDonation,
		Statuses:     []models.TicketStatus{models.StatusPending},
		ExpiresAfter: now,
	})
	if err != nil {
		return nil, err
	}
	out := []Notification{}
	for i := range available {
		t := &available[i]
		out = append(out, note(KindNewDonation, t, fmt.Sprintf("%s posted %s (%s)", t.OrganizationName, t.FoodType, t.QuantityText())))
	}

	mine, err := v.store.Tickets().List(ctx, store.TicketFilter{AcceptedByID: actor.ID})
	if err != nil {
		return nil, err
	}
	for i := range mine {
		t := &mine[i]
		switch t.OrganizationDeliveryStatus {
		case models.OrgDeliveryAccepted:
			out = append(out, note(KindDeliveryApproved, t, fmt.Sprintf("%s will deliver %s", t.OrganizationName, t.FoodType)))
		case models.OrgDeliveryDeclined:
			out = append(out, note(KindDeliveryDeclined, t, fmt.Sprintf("%s cannot deliver %s, pick another method", t.OrganizationName, t.FoodType)))
		}
	}
	return out, nil
}

func (v *Views) factoryNotes(ctx context.Context, actor models.Actor) ([]Notification, error) {
	open, err := v.store.Tickets().List(ctx, store.TicketFilter{
		Kind:     models.KindConversion,
		Statuses: []models.TicketStatus{models.StatusExpired},
	})
	if err != nil {
		return nil, err
	}
	out := []Notification{}
	for i := range open {
		t := &open[i]
		out = append(out, note(KindConversionOpen, t, fmt.Sprintf("%s has %s for conversion", t.OrganizationName, t.QuantityText())))
	}
	return out, nil
}

// OrganizationSummary is one donor with food a recipient can still claim.
type OrganizationSummary struct {
	OrganizationID   string            `json:"organizationID"`
	OrganizationName string            `json:"organizationName"`
	OrganizationType string            `json:"organizationType,omitempty"`
	Address          models.Address    `json:"address"`
	OpenTickets      int               `json:"openTickets"`
	TotalWeightKg    float64           `json:"totalWeightKg"`
	Categories       []models.Category `json:"categories"`
	NextExpiry       time.Time         `json:"nextExpiry"`
}

// AvailableOrganizations groups the claimable donation tickets by donor.
// Conversion tickets never show up here.
func (v *Views) AvailableOrganizations(ctx context.Context) ([]OrganizationSummary, error) {
	now := v.now()
	tickets, err := v.store.Tickets().List(ctx, store.TicketFilter{
		Kind:         models.KindDonation,
		Statuses:     []models.TicketStatus{models.StatusPending},
		ExpiresAfter: now,
	})
	if err != nil {
		return nil, err
	}

	byOrg := map[string]*OrganizationSummary{}
	order := []string{}
	for i := range tickets {
		t := &tickets[i]
		if !ticket.AvailableToRecipients(t, now) {
			continue
		}
		s, ok := byOrg[t.OrganizationID]
		if !ok {
			s = &OrganizationSummary{
				OrganizationID:   t.OrganizationID,
				OrganizationName: t.OrganizationName,
				Categories:       []models.Category{},
				NextExpiry:       t.ExpiryDate,
			}
			byOrg[t.OrganizationID] = s
			order = append(order, t.OrganizationID)
		}
		s.OpenTickets++
		s.TotalWeightKg += t.WeightKg
		if t.ExpiryDate.Before(s.NextExpiry) {
			s.NextExpiry = t.ExpiryDate
		}
		if !containsCategory(s.Categories, t.Category) {
			s.Categories = append(s.Categories, t.Category)
		}
	}

	out := make([]OrganizationSummary, 0, len(order))
	for _, id := range order {
		s := byOrg[id]
		sort.Slice(s.Categories, func(i, j int) bool { return s.Categories[i] < s.Categories[j] })
		u, err := v.store.Users().Get(ctx, id)
		switch {
		case err == nil:
			s.Address = u.Address
			s.OrganizationType = u.OrganizationType
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NextExpiry.Before(out[j].NextExpiry) })
	return out, nil
}

func containsCategory(list []models.Category, c models.Category) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// DeliveryLog is a delivery request with the food it concerns.
type DeliveryLog struct {
	models.DeliveryRequest
	FoodType string `json:"foodType"`
	Quantity string `json:"quantity"`
}

// DeliveryLogs lists the delivery requests addressed to an organization.
func (v *Views) DeliveryLogs(ctx context.Context, orgID string, status models.DeliveryRequestStatus) ([]DeliveryLog, error) {
	reqs, err := v.store.DeliveryRequests().List(ctx, store.DeliveryRequestFilter{OrganizationID: orgID, Status: status})
	if err != nil {
		return nil, err
	}
	out := make([]DeliveryLog, 0, len(reqs))
	for _, r := range reqs {
		log := DeliveryLog{DeliveryRequest: r}
		t, err := v.store.Tickets().Get(ctx, r.TicketID)
		switch {
		case err == nil:
			log.FoodType = t.FoodType
			log.Quantity = t.QuantityText()
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
		out = append(out, log)
	}
	return out, nil
}

// MealTracking lists tracking records visible to actor. Admins see everything.
func (v *Views) MealTracking(ctx context.Context, actor models.Actor) ([]models.TrackingRecord, error) {
	f := store.TrackingFilter{}
	switch {
	case actor.Role == models.RoleOrganization:
		f.OrganizationID = actor.ID
	case actor.Role.Recipient():
		f.RecipientID = actor.ID
	case actor.Role == models.RoleAdmin:
	default:
		return []models.TrackingRecord{}, nil
	}
	return v.store.Tracking().List(ctx, f)
}
