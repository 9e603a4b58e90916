package models

import "time"

// MoneyDonation records a cash gift. Payment processing happens elsewhere.
type MoneyDonation struct {
	ID        string    `bson:"_id" json:"id" gorm:"primaryKey"`
	DonorID   string    `bson:"donorID,omitempty" json:"donorID,omitempty"`
	DonorName string    `bson:"donorName" json:"donorName"`
	Amount    float64   `bson:"amount" json:"amount"`
	Currency  string    `bson:"currency" json:"currency"`
	Message   string    `bson:"message,omitempty" json:"message,omitempty"`
	Status    string    `bson:"status" json:"status"` // recorded
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func (MoneyDonation) TableName() string { return "money_donations" }
