// internal/models/food_ticket.go
package models

import (
	"fmt"
	"time"
)

// ExpirySentinel is the legacy food type donors use to post already-expired food.
const ExpirySentinel = "expiry"

type TicketStatus string

const (
	// Waiting for a recipient (donation tickets only).
	StatusPending TicketStatus = "pending"

	// Claimed by a recipient, or by a factory for conversion tickets.
	StatusAccepted TicketStatus = "accepted"

	// Turned down. Terminal.
	StatusDeclined TicketStatus = "declined"

	// Entry state of the factory sub-flow. Acts as "pending" for factories.
	StatusExpired TicketStatus = "expired"
)

func AsTicketStatus(s string) (TicketStatus, error) {
	switch s {
	case string(StatusPending):
		return StatusPending, nil
	case string(StatusAccepted):
		return StatusAccepted, nil
	case string(StatusDeclined):
		return StatusDeclined, nil
	case string(StatusExpired):
		return StatusExpired, nil
	default:
		return "", fmt.Errorf("'%s' is not a ticket status", s)
	}
}

type Category string

const (
	CategoryPrepared Category = "prepared"
	CategoryProduce  Category = "produce"
	CategoryBakery   Category = "bakery"
	CategoryDairy    Category = "dairy"
	CategoryMeat     Category = "meat"
	CategoryOther    Category = "other"
)

func AsCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryPrepared, CategoryProduce, CategoryBakery, CategoryDairy, CategoryMeat, CategoryOther:
		return Category(s), nil
	default:
		return "", fmt.Errorf("'%s' is not a food category", s)
	}
}

// DeliveryCapability is declared by the donor when posting a ticket and
// constrains how the food may later travel to the recipient.
type DeliveryCapability string

const (
	CapabilityFactoryOnly     DeliveryCapability = "factory-only"
	CapabilitySelfDelivery    DeliveryCapability = "self-delivery"
	CapabilityAcceptsRequests DeliveryCapability = "accepts-requests"
	CapabilityNone            DeliveryCapability = "none"
)

func AsDeliveryCapability(s string) (DeliveryCapability, error) {
	switch DeliveryCapability(s) {
	case CapabilityFactoryOnly, CapabilitySelfDelivery, CapabilityAcceptsRequests, CapabilityNone:
		return DeliveryCapability(s), nil
	default:
		return "", fmt.Errorf("'%s' is not a delivery capability", s)
	}
}

// OrganizationDelivers reports whether the donor runs its own deliveries.
func (c DeliveryCapability) OrganizationDelivers() bool {
	switch c {
	case CapabilitySelfDelivery, CapabilityAcceptsRequests:
		return true
	default:
		return false
	}
}

type DeliveryMethod string

const (
	MethodSelfPickup           DeliveryMethod = "self-pickup"
	MethodOrganizationDelivery DeliveryMethod = "organization-delivery"
	MethodShipping             DeliveryMethod = "third-party-shipping"
)

func AsDeliveryMethod(s string) (DeliveryMethod, error) {
	switch DeliveryMethod(s) {
	case MethodSelfPickup, MethodOrganizationDelivery, MethodShipping:
		return DeliveryMethod(s), nil
	default:
		return "", fmt.Errorf("'%s' is not a delivery method", s)
	}
}

// OrgDeliveryStatus tracks the donor's answer to an organization-delivery request.
type OrgDeliveryStatus string

const (
	OrgDeliveryPending  OrgDeliveryStatus = "pending"
	OrgDeliveryAccepted OrgDeliveryStatus = "accepted"
	OrgDeliveryDeclined OrgDeliveryStatus = "declined"
)

type ConversionStatus string

const (
	ConversionPending   ConversionStatus = "pending"
	ConversionConverted ConversionStatus = "converted"
	ConversionRejected  ConversionStatus = "rejected"
)

// TicketKind discriminates the two sub-flows a ticket can live in.
type TicketKind string

const (
	// Offered to charities and guests.
	KindDonation TicketKind = "donation"

	// Expired or factory-only food, offered to factories for reprocessing.
	KindConversion TicketKind = "conversion"
)

type FoodTicket struct {
	ID               string `bson:"_id" json:"id" gorm:"primaryKey"`
	OrganizationID   string `bson:"organizationID" json:"organizationID" gorm:"index"`
	OrganizationName string `bson:"organizationName" json:"organizationName"`

	FoodType string   `bson:"foodType" json:"foodType"`
	Category Category `bson:"category" json:"category"`
	WeightKg float64  `bson:"weightKg" json:"weightKg"`
	Pieces   int      `bson:"pieces,omitempty" json:"pieces,omitempty"`
	Notes    string   `bson:"notes,omitempty" json:"notes,omitempty"`

	ExpiryDate time.Time `bson:"expiryDate" json:"expiryDate"`
	PickupFrom string    `bson:"pickupFrom,omitempty" json:"pickupFrom,omitempty"` // HH:MM
	PickupTo   string    `bson:"pickupTo,omitempty" json:"pickupTo,omitempty"`     // HH:MM

	DeliveryCapability DeliveryCapability `bson:"deliveryCapability" json:"deliveryCapability"`
	Kind               TicketKind         `bson:"kind" json:"kind" gorm:"index"`
	Status             TicketStatus       `bson:"status" json:"status" gorm:"index"`

	AcceptedByID   string `bson:"acceptedByID,omitempty" json:"acceptedByID,omitempty" gorm:"index"`
	AcceptedByName string `bson:"acceptedByName,omitempty" json:"acceptedByName,omitempty"`

	DeliveryMethod             DeliveryMethod    `bson:"deliveryMethod,omitempty" json:"deliveryMethod,omitempty"`
	OrganizationDeliveryStatus OrgDeliveryStatus `bson:"organizationDeliveryStatus,omitempty" json:"organizationDeliveryStatus,omitempty"`

	FactoryID           string           `bson:"factoryID,omitempty" json:"factoryID,omitempty" gorm:"index"`
	FactoryName         string           `bson:"factoryName,omitempty" json:"factoryName,omitempty"`
	FactoryDeliveryNote string           `bson:"factoryDeliveryNote,omitempty" json:"factoryDeliveryNote,omitempty"`
	ConversionStatus    ConversionStatus `bson:"conversionStatus,omitempty" json:"conversionStatus,omitempty"`

	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt" gorm:"autoUpdateTime:false"`
}

func (FoodTicket) TableName() string { return "food_tickets" }

// Expired reports whether the food's expiry date is at or before now.
func (t *FoodTicket) Expired(now time.Time) bool {
	return !t.ExpiryDate.After(now)
}

// QuantityText renders weight and piece count the way tracking logs show it.
func (t *FoodTicket) QuantityText() string {
	if t.Pieces > 0 {
		return fmt.Sprintf("%g kg (%d pcs)", t.WeightKg, t.Pieces)
	}
	return fmt.Sprintf("%g kg", t.WeightKg)
}
