package models

import (
	"fmt"
	"time"
)

type TrackingStatus string

const (
	TrackingPending   TrackingStatus = "pending"
	TrackingInTransit TrackingStatus = "in-transit"
	TrackingDelivered TrackingStatus = "delivered"
	TrackingCancelled TrackingStatus = "cancelled"
)

func AsTrackingStatus(s string) (TrackingStatus, error) {
	switch TrackingStatus(s) {
	case TrackingPending, TrackingInTransit, TrackingDelivered, TrackingCancelled:
		return TrackingStatus(s), nil
	default:
		return "", fmt.Errorf("'%s' is not a tracking status", s)
	}
}

// TrackingRecord is an append-only log entry for the movement of an accepted
// ticket. Its status is maintained by admins and is not re-derived from the ticket.
type TrackingRecord struct {
	ID               string         `bson:"_id" json:"id" gorm:"primaryKey"`
	TicketID         string         `bson:"ticketID" json:"ticketID" gorm:"index"`
	Seq              int            `bson:"seq" json:"seq"` // position in the ticket's log, from 1
	OrganizationID   string         `bson:"organizationID" json:"organizationID" gorm:"index"`
	OrganizationName string         `bson:"organizationName" json:"organizationName"`
	RecipientID      string         `bson:"recipientID" json:"recipientID" gorm:"index"`
	Category         Category       `bson:"category" json:"category"`
	Quantity         string         `bson:"quantity" json:"quantity"`
	DeliveryMethod   DeliveryMethod `bson:"deliveryMethod" json:"deliveryMethod"`
	Status           TrackingStatus `bson:"status" json:"status"`
	ProofURL         string         `bson:"proofURL,omitempty" json:"proofURL,omitempty"`
	CreatedAt        time.Time      `bson:"createdAt" json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt        time.Time      `bson:"updatedAt" json:"updatedAt" gorm:"autoUpdateTime:false"`
}

func (TrackingRecord) TableName() string { return "meal_tracking" }
