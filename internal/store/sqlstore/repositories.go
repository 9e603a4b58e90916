package sqlstore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store"
)

type ticketRepo struct{ db *gorm.DB }

func (r ticketRepo) Get(ctx context.Context, id string) (*models.FoodTicket, error) {
	var out models.FoodTicket
	if err := r.db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r ticketRepo) List(ctx context.Context, f store.TicketFilter) ([]models.FoodTicket, error) {
	q := r.db.WithContext(ctx).Model(&models.FoodTicket{})
	if f.OrganizationID != "" {
		q = q.Where("organization_id = ?", f.OrganizationID)
	}
	if f.AcceptedByID != "" {
		q = q.Where("accepted_by_id = ?", f.AcceptedByID)
	}
	if f.FactoryID != "" {
		q = q.Where("factory_id = ?", f.FactoryID)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	// SQLite keeps times as text, so bounds and rows must share one offset.
	if !f.ExpiresAfter.IsZero() {
		q = q.Where("expiry_date > ?", f.ExpiresAfter.UTC())
	}
	if !f.ExpiresBy.IsZero() {
		q = q.Where("expiry_date <= ?", f.ExpiresBy.UTC())
	}
	list := []models.FoodTicket{}
	return list, translate(q.Order("created_at desc, id asc").Find(&list).Error)
}

func (r ticketRepo) Insert(ctx context.Context, t *models.FoodTicket) error {
	utcTicket(t)
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r ticketRepo) Update(ctx context.Context, t *models.FoodTicket) error {
	utcTicket(t)
	prev := t.Version
	t.Version = prev + 1
	res := r.db.WithContext(ctx).Model(t).
		Where("version = ?", prev).
		Select("*").
		Updates(t)
	if res.Error != nil {
		t.Version = prev
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		t.Version = prev
		if _, err := r.Get(ctx, t.ID); err != nil {
			return err
		}
		return store.ErrConflict
	}
	return nil
}

type trackingRepo struct{ db *gorm.DB }

func (r trackingRepo) Append(ctx context.Context, rec *models.TrackingRecord) error {
	rec.CreatedAt, rec.UpdatedAt = rec.CreatedAt.UTC(), rec.UpdatedAt.UTC()
	return translate(r.db.WithContext(ctx).Create(rec).Error)
}

func (r trackingRepo) Get(ctx context.Context, id string) (*models.TrackingRecord, error) {
	var out models.TrackingRecord
	if err := r.db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r trackingRepo) List(ctx context.Context, f store.TrackingFilter) ([]models.TrackingRecord, error) {
	q := r.db.WithContext(ctx).Model(&models.TrackingRecord{})
	if f.TicketID != "" {
		q = q.Where("ticket_id = ?", f.TicketID)
	}
	if f.OrganizationID != "" {
		q = q.Where("organization_id = ?", f.OrganizationID)
	}
	if f.RecipientID != "" {
		q = q.Where("recipient_id = ?", f.RecipientID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	list := []models.TrackingRecord{}
	return list, translate(q.Order("created_at asc, seq asc, id asc").Find(&list).Error)
}

func (r trackingRepo) update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.TrackingRecord{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r trackingRepo) UpdateStatus(ctx context.Context, id string, status models.TrackingStatus, at time.Time) error {
	return r.update(ctx, id, map[string]any{"status": status, "updated_at": at.UTC()})
}

func (r trackingRepo) AttachProof(ctx context.Context, id string, url string, at time.Time) error {
	return r.update(ctx, id, map[string]any{"proof_url": url, "updated_at": at.UTC()})
}

type deliveryRequestRepo struct{ db *gorm.DB }

func (r deliveryRequestRepo) GetByTicket(ctx context.Context, ticketID string) (*models.DeliveryRequest, error) {
	var out models.DeliveryRequest
	if err := r.db.WithContext(ctx).First(&out, "ticket_id = ?", ticketID).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r deliveryRequestRepo) List(ctx context.Context, f store.DeliveryRequestFilter) ([]models.DeliveryRequest, error) {
	q := r.db.WithContext(ctx).Model(&models.DeliveryRequest{})
	if f.OrganizationID != "" {
		q = q.Where("organization_id = ?", f.OrganizationID)
	}
	if f.RecipientID != "" {
		q = q.Where("recipient_id = ?", f.RecipientID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	list := []models.DeliveryRequest{}
	return list, translate(q.Order("created_at desc, id asc").Find(&list).Error)
}

func (r deliveryRequestRepo) Upsert(ctx context.Context, req *models.DeliveryRequest) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticket_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"recipient_id", "recipient_name", "status", "fee", "updated_at"}),
	}).Create(req).Error
	return translate(err)
}

type userRepo struct{ db *gorm.DB }

func (r userRepo) Get(ctx context.Context, id string) (*models.User, error) {
	var out models.User
	if err := r.db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var out models.User
	if err := r.db.WithContext(ctx).First(&out, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r userRepo) List(ctx context.Context, role models.Role) ([]models.User, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	list := []models.User{}
	return list, translate(q.Order("created_at asc, id asc").Find(&list).Error)
}

func (r userRepo) Insert(ctx context.Context, u *models.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r userRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	return n, translate(r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error)
}

type donationRepo struct{ db *gorm.DB }

func (r donationRepo) Insert(ctx context.Context, d *models.MoneyDonation) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

func (r donationRepo) List(ctx context.Context) ([]models.MoneyDonation, error) {
	list := []models.MoneyDonation{}
	return list, translate(r.db.WithContext(ctx).Order("created_at desc").Find(&list).Error)
}

type proofRepo struct{ db *gorm.DB }

func (r proofRepo) Insert(ctx context.Context, p *models.DeliveryProof) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r proofRepo) ListByTracking(ctx context.Context, trackingID string) ([]models.DeliveryProof, error) {
	list := []models.DeliveryProof{}
	err := r.db.WithContext(ctx).Where("tracking_id = ?", trackingID).Order("created_at asc").Find(&list).Error
	return list, translate(err)
}

// utcTicket rewrites t's instants in UTC so text comparisons order them correctly.
func utcTicket(t *models.FoodTicket) {
	t.ExpiryDate = t.ExpiryDate.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
}
