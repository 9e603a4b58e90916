package models

import "time"

// DeliveryProof is a photo taken at pickup or hand-over. The image itself lives in S3.
type DeliveryProof struct {
	ID         string    `bson:"_id" json:"id" gorm:"primaryKey"`
	TrackingID string    `bson:"trackingID" json:"trackingID" gorm:"index"`
	TicketID   string    `bson:"ticketID" json:"ticketID"`
	PhotoURL   string    `bson:"photoURL" json:"photoURL"`
	UploadedBy string    `bson:"uploadedBy" json:"uploadedBy"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

func (DeliveryProof) TableName() string { return "delivery_proofs" }
