package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/antigravity/transitcore/internal/builder"
	"github.com/antigravity/transitcore/internal/calendar"
	"github.com/antigravity/transitcore/internal/dataset"
	"github.com/antigravity/transitcore/internal/transit"
)

func TestHealthBeforeLoadReturns503Loading(t *testing.T) {
	var h dataset.Holder
	s := NewServer(&h)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if !strings.Contains(rr.Body.String(), `"loading"`) {
		t.Fatalf("body = %s, want it to mention loading", rr.Body.String())
	}
}

func TestRouteReturnsPathAfterLoad(t *testing.T) {
	reg := calendar.NewRegistry()
	var all calendar.Mask
	for i := range all {
		all[i] = true
	}
	always := reg.Intern(all)

	d := &transit.Dataset{
		StopAreas:   []transit.StopArea{{ID: 0}, {ID: 1}},
		StopPoints:  []transit.StopPoint{{ID: 0, StopArea: 0}, {ID: 1, StopArea: 1}},
		RoutePoints: []transit.RoutePoint{{ID: 0, StopPoint: 0}, {ID: 1, StopPoint: 1}},
		StopTimes: []transit.StopTime{
			{ID: 0, ArrivalTime: 8000, DepartureTime: 8000, RoutePoint: 0},
			{ID: 1, ArrivalTime: 8100, DepartureTime: 8100, RoutePoint: 1},
		},
		VehicleJourneys: []transit.VehicleJourney{
			{ID: 0, StopTimeList: []transit.StopTimeID{0, 1}, ValidityPattern: always},
		},
		Calendar: reg,
	}
	g, err := builder.BuildGraph(d)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	var h dataset.Holder
	h.AcquireExclusive(&dataset.Snapshot{Graph: g, Data: d, Reg: reg})
	s := NewServer(&h)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/route?src=0&dst=1&time=7900&day=0", nil)
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"StopArea":1`) {
		t.Fatalf("body = %s, want it to mention the destination stop area", rr.Body.String())
	}
}
