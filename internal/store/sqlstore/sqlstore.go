// Package sqlstore implements store.Store on an embedded SQLite file through gorm.
//
// It serves single-node deployments (store.driver: sqlite) and backs the
// local ticket mirror.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite" // CGO-free driver
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the SQLite database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// SQLite allows one writer; a single connection avoids "database is locked".
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.FoodTicket{},
		&models.TrackingRecord{},
		&models.DeliveryRequest{},
		&models.User{},
		&models.MoneyDonation{},
		&models.DeliveryProof{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Tickets() store.TicketRepository                   { return ticketRepo{s.db} }
func (s *Store) Tracking() store.TrackingRepository                { return trackingRepo{s.db} }
func (s *Store) DeliveryRequests() store.DeliveryRequestRepository { return deliveryRequestRepo{s.db} }
func (s *Store) Users() store.UserRepository                       { return userRepo{s.db} }
func (s *Store) Donations() store.DonationRepository               { return donationRepo{s.db} }
func (s *Store) Proofs() store.ProofRepository                     { return proofRepo{s.db} }

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx})
	})
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", store.ErrConflict, err)
	default:
		return err
	}
}
