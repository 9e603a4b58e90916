// Package export renders admin reports as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"giving-hand-api-server/internal/models"
)

const trackingSheet = "Meal tracking"

var trackingHeader = []interface{}{
	"ID", "Ticket", "Organization", "Recipient", "Category", "Quantity",
	"Delivery method", "Status", "Proof", "Created", "Updated",
}

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteTracking writes records as a single-sheet workbook to w.
func WriteTracking(w io.Writer, records []models.TrackingRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", trackingSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(trackingSheet, "A1", &trackingHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(trackingSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range records {
		row := []interface{}{
			r.ID, r.TicketID, r.OrganizationName, r.RecipientID, string(r.Category), r.Quantity,
			string(r.DeliveryMethod), string(r.Status), r.ProofURL,
			r.CreatedAt.UTC().Format("2006-01-02 15:04"), r.UpdatedAt.UTC().Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(trackingSheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(trackingSheet, "A", "K", 18); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
