// Package statement renders a folio as a CSV statement.
package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"pousada/internal/domain/folio"
	"pousada/internal/domain/reservation"
	"pousada/internal/domain/shared/money"
)

const ContentType = "text/csv; charset=utf-8"

var header = []string{"date", "kind", "description", "quantity", "unit_value", "total"}

// Render writes one row per folio line in display order, then the charges,
// paid and balance rows.
func Render(r *reservation.Reservation) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	meta := [][]string{
		{"reservation", string(r.ID)},
		{"guest", r.GuestName},
		{"stay", r.Stay.CheckInString() + " - " + r.Stay.CheckOutString()},
		{"status", string(r.Status)},
		{},
		header,
	}
	if err := w.WriteAll(meta); err != nil {
		return nil, err
	}
	for _, line := range r.Folio.Lines() {
		total := line.Total
		if line.Kind == folio.LinePayment {
			total = total.Neg()
		}
		row := []string{
			line.CreatedAt.UTC().Format(time.RFC3339),
			string(line.Kind),
			line.Label,
			strconv.Itoa(line.Quantity),
			line.UnitValue.StringFixed(2),
			total.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	footer := [][]string{
		{},
		{"charges", money.Format(r.Folio.Charges())},
		{"paid", money.Format(r.Folio.Paid())},
		{"balance", money.Format(r.Folio.Balance())},
	}
	if err := w.WriteAll(footer); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ObjectKey is where a statement for r is stored.
func ObjectKey(tenantID string, r *reservation.Reservation, at time.Time) string {
	return fmt.Sprintf("statements/%s/%s/%s.csv", tenantID, r.ID, at.UTC().Format("20060102T150405Z"))
}
