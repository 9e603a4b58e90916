// Package mongostore is the hosted primary store, one collection per entity.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"giving-hand-api-server/internal/store"
)

const (
	colTickets          = "food_tickets"
	colTracking         = "meal_tracking"
	colDeliveryRequests = "delivery_logs"
	colUsers            = "users"
	colDonations        = "money_donations"
	colProofs           = "delivery_proofs"
)

type Store struct {
	client *mongo.Client // nil when the database handle was supplied by the caller
	db     *mongo.Database

	// Multi-document transactions need a replica set.
	transactions bool
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, pings the server and ensures the unique indexes exist.
func Connect(ctx context.Context, uri, dbName string, transactions bool) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := New(client.Database(dbName), transactions)
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. Close will not disconnect it.
func New(db *mongo.Database, transactions bool) *Store {
	return &Store{db: db, transactions: transactions}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	for col, keys := range map[string]bson.D{
		colUsers:            {{Key: "email", Value: 1}},
		colDeliveryRequests: {{Key: "ticketID", Value: 1}},
	} {
		_, err := s.db.Collection(col).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: unique})
		if err != nil {
			return fmt.Errorf("create index on %s: %w", col, err)
		}
	}
	return nil
}

func (s *Store) Tickets() store.TicketRepository {
	return ticketRepo{s.db.Collection(colTickets)}
}

func (s *Store) Tracking() store.TrackingRepository {
	return trackingRepo{s.db.Collection(colTracking)}
}

func (s *Store) DeliveryRequests() store.DeliveryRequestRepository {
	return deliveryRequestRepo{s.db.Collection(colDeliveryRequests)}
}

func (s *Store) Users() store.UserRepository {
	return userRepo{s.db.Collection(colUsers)}
}

func (s *Store) Donations() store.DonationRepository {
	return donationRepo{s.db.Collection(colDonations)}
}

func (s *Store) Proofs() store.ProofRepository {
	return proofRepo{s.db.Collection(colProofs)}
}

// Atomically runs fn inside a session transaction when transactions are
// enabled. Otherwise the writes run one after another and a failure part way
// leaves the earlier ones in place.
func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if !s.transactions {
		return fn(ctx, s)
	}
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s", store.ErrConflict, err)
	default:
		return err
	}
}

// findAll decodes every document matched by filter into a non-nil slice.
func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	list := []T{}
	if err := cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := col.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}
