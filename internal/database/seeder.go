// internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"giving-hand-api-server/config"
	"giving-hand-api-server/internal/auth"
	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store"
)

type seedUser struct {
	email, name, password string
	role                  models.Role
	orgType               string
	address               models.Address
}

// Demo accounts share one password.
const demoPassword = "givinghand"

var demoUsers = []seedUser{
	{email: "hotel@demo.givinghand.local", name: "Nile View Hotel", role: models.RoleOrganization, orgType: "hotel",
		address: models.Address{FullText: "Corniche El Nil, Cairo", Latitude: 30.0444, Longitude: 31.2357}},
	{email: "charity@demo.givinghand.local", name: "Helping Hearts Shelter", role: models.RoleCharity,
		address: models.Address{FullText: "Nasr City, Cairo", Latitude: 30.0561, Longitude: 31.3301}},
	{email: "factory@demo.givinghand.local", name: "Green Feed Factory", role: models.RoleFactory,
		address: models.Address{FullText: "10th of Ramadan City", Latitude: 30.2920, Longitude: 31.7424}},
	{email: "guest@demo.givinghand.local", name: "Mona Guest", role: models.RoleGuest},
}

// SeedResult reports what SeedIfEmpty wrote.
type SeedResult struct {
	Seeded bool
	// GeneratedPassword is set when no admin password was configured. It is
	// never logged; the caller shows it to the operator once.
	GeneratedPassword string
}

// SeedIfEmpty creates the admin account, plus the demo accounts when
// cfg.Demo is set, but only when the store has no users at all.
func SeedIfEmpty(ctx context.Context, users store.UserRepository, cfg config.SeedConfig) (SeedResult, error) {
	log := logging.New("seed")

	count, err := users.Count(ctx)
	if err != nil {
		return SeedResult{}, err
	}
	if count > 0 {
		log.Info("users already exist, seeding skipped", "count", count)
		return SeedResult{}, nil
	}

	var res SeedResult
	password := cfg.AdminPassword
	if password == "" {
		password = strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
		res.GeneratedPassword = password
		log.Warn("no seed.adminPassword configured, generated one", "email", cfg.AdminEmail)
	}
	seeds := []seedUser{{email: cfg.AdminEmail, name: "Administrator", password: password, role: models.RoleAdmin}}
	if cfg.Demo {
		for _, u := range demoUsers {
			u.password = demoPassword
			seeds = append(seeds, u)
		}
	}

	now := time.Now().UTC()
	for _, s := range seeds {
		hash, err := auth.HashPassword(s.password)
		if err != nil {
			return SeedResult{}, err
		}
		u := &models.User{
			ID:               models.NewID(models.PrefixUser),
			Email:            s.email,
			Name:             s.name,
			PasswordHash:     hash,
			Role:             s.role,
			Address:          s.address,
			OrganizationType: s.orgType,
			Status:           "active",
			CreatedAt:        now,
		}
		if err := users.Insert(ctx, u); err != nil {
			if errors.Is(err, store.ErrConflict) {
				continue // another instance seeded concurrently
			}
			return SeedResult{}, fmt.Errorf("seed %s: %w", s.email, err)
		}
		log.Info("seeded user", "email", s.email, "role", s.role)
	}
	res.Seeded = true
	return res, nil
}

// PrintGeneratedPassword writes a generated admin password to w, once, for
// the operator to note down.
func (r SeedResult) PrintGeneratedPassword(w io.Writer, email string) {
	if r.GeneratedPassword == "" {
		return
	}
	fmt.Fprintf(w, "Generated admin password for %s: %s\nSet seed.adminPassword to choose one.\n", email, r.GeneratedPassword)
}
