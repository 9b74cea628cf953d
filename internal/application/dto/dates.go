package dto

import (
	"time"

	"github.com/jhoicas/retail-kpi-api/internal/domain"
)

// DateLayout formato de fechas en query params y cuerpos.
const DateLayout = "2006-01-02"

// ParseDateRange interpreta date_from/date_to (YYYY-MM-DD). date_to es inclusivo:
// el límite superior devuelto es el inicio del día siguiente.
func ParseDateRange(fromStr, toStr string) (from, to time.Time, err error) {
	if fromStr != "" {
		from, err = time.ParseInLocation(DateLayout, fromStr, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, domain.Invalid("date_from must be YYYY-MM-DD")
		}
	}
	if toStr != "" {
		to, err = time.ParseInLocation(DateLayout, toStr, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, domain.Invalid("date_to must be YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return time.Time{}, time.Time{}, domain.Invalid("date_from must not be after date_to")
	}
	return from, to, nil
}
