package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/adamwal/gpwetl/internal/calendar"
)

// CalendarHandler answers trading-day lookups.
type CalendarHandler struct {
	cal *calendar.Calendar
}

// NewCalendarHandler creates a calendar handler.
func NewCalendarHandler(cal *calendar.Calendar) *CalendarHandler {
	return &CalendarHandler{cal: cal}
}

// Get reports whether a date is a trading day, with the holiday name and
// neighbouring sessions.
func (h *CalendarHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["date"]
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	body := map[string]interface{}{
		"date":                 raw,
		"is_trading_day":       h.cal.IsTradingDay(d),
		"previous_trading_day": h.cal.PreviousTradingDay(d).Format("2006-01-02"),
		"next_trading_day":     h.cal.NextTradingDay(d).Format("2006-01-02"),
	}
	if name := h.cal.HolidayName(d); name != "" {
		body["holiday"] = name
	}

	writeJSON(w, http.StatusOK, body)
}
