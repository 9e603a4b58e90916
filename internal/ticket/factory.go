package ticket

import (
	"fmt"
	"time"

	"giving-hand-api-server/internal/models"
)

func checkFactory(t *models.FoodTicket, actor models.Actor) error {
	if actor.Role != models.RoleFactory {
		return fmt.Errorf("%w: %s cannot take conversion tickets", ErrNotAllowed, actor.Role)
	}
	if t.Kind != models.KindConversion {
		return fmt.Errorf("%w: ticket %s is not up for conversion", ErrNotAllowed, t.ID)
	}
	return nil
}

// FactoryAccept claims an expired ticket for reprocessing. note records how
// the factory intends to collect the food; it does not gate anything.
func FactoryAccept(t *models.FoodTicket, actor models.Actor, note string, now time.Time) error {
	if err := checkFactory(t, actor); err != nil {
		return err
	}
	if t.Status != models.StatusExpired || t.ConversionStatus != models.ConversionPending {
		return newErrInvalidTransition(string(t.Status), string(models.StatusAccepted))
	}
	t.Status = models.StatusAccepted
	t.FactoryID = actor.ID
	t.FactoryName = actor.Name
	t.FactoryDeliveryNote = note
	t.UpdatedAt = now
	return nil
}

// FactoryDecline rejects an expired ticket. Terminal.
func FactoryDecline(t *models.FoodTicket, actor models.Actor, now time.Time) error {
	if err := checkFactory(t, actor); err != nil {
		return err
	}
	if t.Status != models.StatusExpired || t.ConversionStatus != models.ConversionPending {
		return newErrInvalidTransition(string(t.Status), string(models.StatusDeclined))
	}
	t.Status = models.StatusDeclined
	t.ConversionStatus = models.ConversionRejected
	t.FactoryID = actor.ID
	t.FactoryName = actor.Name
	t.UpdatedAt = now
	return nil
}

// Convert marks claimed food as reprocessed. Terminal.
func Convert(t *models.FoodTicket, actor models.Actor, now time.Time) error {
	if err := checkFactory(t, actor); err != nil {
		return err
	}
	if t.Status != models.StatusAccepted || t.ConversionStatus != models.ConversionPending {
		return newErrInvalidTransition("conversion "+string(t.ConversionStatus), string(models.ConversionConverted))
	}
	if t.FactoryID != actor.ID {
		return fmt.Errorf("%w: ticket was claimed by another factory", ErrNotAllowed)
	}
	t.ConversionStatus = models.ConversionConverted
	t.UpdatedAt = now
	return nil
}
