package sqlstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"giving-hand-api-server/internal/models"
)

// PutTicket stores t as-is, overwriting any local copy regardless of version.
// The mirror only ever receives tickets the primary already accepted.
func (s *Store) PutTicket(ctx context.Context, t *models.FoodTicket) error {
	utcTicket(t)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(t).Error
	return translate(err)
}

// ReplaceTickets swaps the whole local ticket table for list.
func (s *Store) ReplaceTickets(ctx context.Context, list []models.FoodTicket) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.FoodTicket{}).Error; err != nil {
			return translate(err)
		}
		if len(list) == 0 {
			return nil
		}
		for i := range list {
			utcTicket(&list[i])
		}
		return translate(tx.CreateInBatches(list, 100).Error)
	})
}
