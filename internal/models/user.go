package models

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleOrganization Role = "organization"
	RoleCharity      Role = "charity"
	RoleFactory      Role = "factory"
	RoleGuest        Role = "guest"
	RoleAdmin        Role = "admin"
)

func AsRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOrganization, RoleCharity, RoleFactory, RoleGuest, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("'%s' is not a role", s)
	}
}

// Recipient reports whether the role may take donation tickets.
func (r Role) Recipient() bool {
	return r == RoleCharity || r == RoleGuest
}

// User matches the document in the users collection.
type User struct {
	ID               string    `bson:"_id" json:"id" gorm:"primaryKey"`
	Email            string    `bson:"email" json:"email" gorm:"uniqueIndex"`
	Name             string    `bson:"name" json:"name"`
	PasswordHash     string    `bson:"password" json:"-"`
	Role             Role      `bson:"role" json:"role" gorm:"index"`
	Phone            string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Address          Address   `bson:"address" json:"address" gorm:"embedded;embeddedPrefix:address_"`
	OrganizationType string    `bson:"organizationType,omitempty" json:"organizationType,omitempty"` // hotel, restaurant, supermarket
	Status           string    `bson:"status" json:"status"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
}

func (User) TableName() string { return "users" }

// Actor is the identity performing a lifecycle action.
type Actor struct {
	ID   string
	Name string
	Role Role
}

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}
