package models

import "time"

type DeliveryRequestStatus string

const (
	DeliveryRequestPending  DeliveryRequestStatus = "pending"
	DeliveryRequestAccepted DeliveryRequestStatus = "accepted"
	DeliveryRequestDeclined DeliveryRequestStatus = "declined"
)

// DeliveryRequest is a recipient's ask for the donor organization to deliver
// an accepted ticket itself. One request per ticket; re-requests reuse it.
type DeliveryRequest struct {
	ID             string                `bson:"_id" json:"id" gorm:"primaryKey"`
	TicketID       string                `bson:"ticketID" json:"ticketID" gorm:"uniqueIndex"`
	OrganizationID string                `bson:"organizationID" json:"organizationID" gorm:"index"`
	RecipientID    string                `bson:"recipientID" json:"recipientID"`
	RecipientName  string                `bson:"recipientName" json:"recipientName"`
	Status         DeliveryRequestStatus `bson:"status" json:"status" gorm:"index"`
	Fee            float64               `bson:"fee" json:"fee"`
	CreatedAt      time.Time             `bson:"createdAt" json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time             `bson:"updatedAt" json:"updatedAt" gorm:"autoUpdateTime:false"`
}

func (DeliveryRequest) TableName() string { return "delivery_logs" }
