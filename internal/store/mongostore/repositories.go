package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store"
)

type ticketRepo struct{ col *mongo.Collection }

func (r ticketRepo) Get(ctx context.Context, id string) (*models.FoodTicket, error) {
	return findOne[models.FoodTicket](ctx, r.col, bson.M{"_id": id})
}

func (r ticketRepo) List(ctx context.Context, f store.TicketFilter) ([]models.FoodTicket, error) {
	filter := bson.M{}
	if f.OrganizationID != "" {
		filter["organizationID"] = f.OrganizationID
	}
	if f.AcceptedByID != "" {
		filter["acceptedByID"] = f.AcceptedByID
	}
	if f.FactoryID != "" {
		filter["factoryID"] = f.FactoryID
	}
	if f.Kind != "" {
		filter["kind"] = f.Kind
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	expiry := bson.M{}
	if !f.ExpiresAfter.IsZero() {
		expiry["$gt"] = f.ExpiresAfter
	}
	if !f.ExpiresBy.IsZero() {
		expiry["$lte"] = f.ExpiresBy
	}
	if len(expiry) > 0 {
		filter["expiryDate"] = expiry
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	return findAll[models.FoodTicket](ctx, r.col, filter, opts)
}

func (r ticketRepo) Insert(ctx context.Context, t *models.FoodTicket) error {
	_, err := r.col.InsertOne(ctx, t)
	return translate(err)
}

// Update is the "who is faster" write: the filter carries the version the
// caller read, so a concurrent writer leaves nothing to match.
func (r ticketRepo) Update(ctx context.Context, t *models.FoodTicket) error {
	prev := t.Version
	t.Version = prev + 1
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": t.ID, "version": prev}, t)
	if err != nil {
		t.Version = prev
		return translate(err)
	}
	if res.MatchedCount == 0 {
		t.Version = prev
		if _, err := r.Get(ctx, t.ID); err != nil {
			return err
		}
		return store.ErrConflict
	}
	return nil
}

type trackingRepo struct{ col *mongo.Collection }

func (r trackingRepo) Append(ctx context.Context, rec *models.TrackingRecord) error {
	_, err := r.col.InsertOne(ctx, rec)
	return translate(err)
}

func (r trackingRepo) Get(ctx context.Context, id string) (*models.TrackingRecord, error) {
	return findOne[models.TrackingRecord](ctx, r.col, bson.M{"_id": id})
}

func (r trackingRepo) List(ctx context.Context, f store.TrackingFilter) ([]models.TrackingRecord, error) {
	filter := bson.M{}
	if f.TicketID != "" {
		filter["ticketID"] = f.TicketID
	}
	if f.OrganizationID != "" {
		filter["organizationID"] = f.OrganizationID
	}
	if f.RecipientID != "" {
		filter["recipientID"] = f.RecipientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "seq", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[models.TrackingRecord](ctx, r.col, filter, opts)
}

func (r trackingRepo) set(ctx context.Context, id string, fields bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r trackingRepo) UpdateStatus(ctx context.Context, id string, status models.TrackingStatus, at time.Time) error {
	return r.set(ctx, id, bson.M{"status": status, "updatedAt": at})
}

func (r trackingRepo) AttachProof(ctx context.Context, id string, url string, at time.Time) error {
	return r.set(ctx, id, bson.M{"proofURL": url, "updatedAt": at})
}

type deliveryRequestRepo struct{ col *mongo.Collection }

func (r deliveryRequestRepo) GetByTicket(ctx context.Context, ticketID string) (*models.DeliveryRequest, error) {
	return findOne[models.DeliveryRequest](ctx, r.col, bson.M{"ticketID": ticketID})
}

func (r deliveryRequestRepo) List(ctx context.Context, f store.DeliveryRequestFilter) ([]models.DeliveryRequest, error) {
	filter := bson.M{}
	if f.OrganizationID != "" {
		filter["organizationID"] = f.OrganizationID
	}
	if f.RecipientID != "" {
		filter["recipientID"] = f.RecipientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	return findAll[models.DeliveryRequest](ctx, r.col, filter, opts)
}

func (r deliveryRequestRepo) Upsert(ctx context.Context, req *models.DeliveryRequest) error {
	update := bson.M{
		"$set": bson.M{
			"organizationID": req.OrganizationID,
			"recipientID":    req.RecipientID,
			"recipientName":  req.RecipientName,
			"status":         req.Status,
			"fee":            req.Fee,
			"updatedAt":      req.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":       req.ID,
			"createdAt": req.CreatedAt,
		},
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"ticketID": req.TicketID}, update, options.Update().SetUpsert(true))
	return translate(err)
}

type userRepo struct{ col *mongo.Collection }

func (r userRepo) Get(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, r.col, bson.M{"_id": id})
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, r.col, bson.M{"email": email})
}

func (r userRepo) List(ctx context.Context, role models.Role) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	return findAll[models.User](ctx, r.col, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r userRepo) Insert(ctx context.Context, u *models.User) error {
	_, err := r.col.InsertOne(ctx, u)
	return translate(err)
}

func (r userRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	return n, translate(err)
}

type donationRepo struct{ col *mongo.Collection }

func (r donationRepo) Insert(ctx context.Context, d *models.MoneyDonation) error {
	_, err := r.col.InsertOne(ctx, d)
	return translate(err)
}

func (r donationRepo) List(ctx context.Context) ([]models.MoneyDonation, error) {
	return findAll[models.MoneyDonation](ctx, r.col, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

type proofRepo struct{ col *mongo.Collection }

func (r proofRepo) Insert(ctx context.Context, p *models.DeliveryProof) error {
	_, err := r.col.InsertOne(ctx, p)
	return translate(err)
}

func (r proofRepo) ListByTracking(ctx context.Context, trackingID string) ([]models.DeliveryProof, error) {
	return findAll[models.DeliveryProof](ctx, r.col, bson.M{"trackingID": trackingID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}
