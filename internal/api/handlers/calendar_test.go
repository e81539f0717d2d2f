package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/adamwal/gpwetl/internal/calendar"
)

func newCalendarRouter() http.Handler {
	h := NewCalendarHandler(calendar.New(2020, 2030))
	r := mux.NewRouter()
	r.HandleFunc("/api/calendar/{date}", h.Get).Methods("GET")
	return r
}

func TestCalendarGet(t *testing.T) {
	router := newCalendarRouter()

	tests := []struct {
		date        string
		wantStatus  int
		wantTrading bool
		wantHoliday string
	}{
		{"2024-04-02", http.StatusOK, true, ""},
		{"2024-04-01", http.StatusOK, false, "Easter Monday"},
		{"2024-04-06", http.StatusOK, false, ""},
		{"not-a-date", http.StatusBadRequest, false, ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/"+tt.date, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.date, rec.Code, tt.wantStatus)
			continue
		}
		if tt.wantStatus != http.StatusOK {
			continue
		}

		var body map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", tt.date, err)
		}
		if got := body["is_trading_day"].(bool); got != tt.wantTrading {
			t.Errorf("%s: is_trading_day = %v, want %v", tt.date, got, tt.wantTrading)
		}
		if tt.wantHoliday != "" && body["holiday"] != tt.wantHoliday {
			t.Errorf("%s: holiday = %v, want %s", tt.date, body["holiday"], tt.wantHoliday)
		}
	}
}
