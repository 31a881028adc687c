package query

import (
	"reflect"
	"testing"

	"github.com/antigravity/transitcore/internal/builder"
	"github.com/antigravity/transitcore/internal/calendar"
	"github.com/antigravity/transitcore/internal/transit"
)

func alwaysValidRegistry() (*calendar.Registry, calendar.Index) {
	r := calendar.NewRegistry()
	var all calendar.Mask
	for i := range all {
		all[i] = true
	}
	return r, r.Intern(all)
}

// Scenario 1 (spec §8.1): Direct. VJ A stop1@8000, stop2@8100.
func TestDirect(t *testing.T) {
	reg, always := alwaysValidRegistry()
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
	p := Compute(g, d, reg, 0, 1, 7900, 0)
	if p.Empty() {
		t.Fatal("expected a path")
	}
	if len(p.Items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(p.Items), p.Items)
	}
	if p.Items[0].StopArea != 0 || p.Items[1].StopArea != 1 {
		t.Fatalf("stop-area sequence = %d,%d want 0,1", p.Items[0].StopArea, p.Items[1].StopArea)
	}
	if p.NbChanges != 0 {
		t.Fatalf("NbChanges = %d, want 0", p.NbChanges)
	}
	if p.Items[1].Seconds != 8100 {
		t.Fatalf("arrival seconds = %d, want 8100", p.Items[1].Seconds)
	}
}

// Scenario 2 (spec §8.2): Change. VJ A stop1->stop2; VJ B continues
// stop2->stop5 after a >=300s transfer.
func TestChangeWithTransfer(t *testing.T) {
	reg, always := alwaysValidRegistry()
	d := &transit.Dataset{
		StopAreas: []transit.StopArea{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}}, // stop1, stop2, stop4, stop5
		StopPoints: []transit.StopPoint{
			{ID: 0, StopArea: 0}, // stop1
			{ID: 1, StopArea: 1}, // stop2 via VJ A's route point
			{ID: 2, StopArea: 2}, // stop4
			{ID: 3, StopArea: 1}, // stop2 via VJ B's route point
			{ID: 4, StopArea: 3}, // stop5
		},
		RoutePoints: []transit.RoutePoint{
			{ID: 0, StopPoint: 0},
			{ID: 1, StopPoint: 1},
			{ID: 2, StopPoint: 2},
			{ID: 3, StopPoint: 3},
			{ID: 4, StopPoint: 4},
		},
		StopTimes: []transit.StopTime{
			{ID: 0, ArrivalTime: 8000, DepartureTime: 8000, RoutePoint: 0}, // A @ stop1
			{ID: 1, ArrivalTime: 8100, DepartureTime: 8100, RoutePoint: 1}, // A @ stop2
			{ID: 2, ArrivalTime: 7800, DepartureTime: 7800, RoutePoint: 2}, // B @ stop4
			{ID: 3, ArrivalTime: 8300, DepartureTime: 8400, RoutePoint: 3}, // B @ stop2 (departs 300s after A's arrival)
			{ID: 4, ArrivalTime: 8600, DepartureTime: 8600, RoutePoint: 4}, // B @ stop5
		},
		VehicleJourneys: []transit.VehicleJourney{
			{ID: 0, StopTimeList: []transit.StopTimeID{0, 1}, ValidityPattern: always},
			{ID: 1, StopTimeList: []transit.StopTimeID{2, 3, 4}, ValidityPattern: always},
		},
		Calendar: reg,
	}
	g, err := builder.BuildGraph(d)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	p := Compute(g, d, reg, 0, 3, 7900, 0)
	if p.Empty() {
		t.Fatal("expected a path")
	}
	wantSA := []int{0, 1, 1, 3}
	if len(p.Items) != len(wantSA) {
		t.Fatalf("got %d items, want %d: %+v", len(p.Items), len(wantSA), p.Items)
	}
	for i, sa := range wantSA {
		if p.Items[i].StopArea != sa {
			t.Errorf("item %d stop area = %d, want %d", i, p.Items[i].StopArea, sa)
		}
	}
	if p.NbChanges != 1 {
		t.Fatalf("NbChanges = %d, want 1", p.NbChanges)
	}
	if p.Items[0].LineID != 0 || p.Items[1].LineID != 0 {
		t.Errorf("first leg should be line 0 (VJ A): %+v", p.Items[:2])
	}
	if p.Items[2].LineID != 1 || p.Items[3].LineID != 1 {
		t.Errorf("second leg should be line 1 (VJ B): %+v", p.Items[2:])
	}
}

// Scenario 3 (spec §8.3): Past midnight. VJ A stop1 23:00 -> stop2 00:05
// (next day); VJ B stop2 00:10 -> stop3 00:20.
func TestPastMidnight(t *testing.T) {
	reg := calendar.NewRegistry()
	var dayZero, dayOne calendar.Mask
	dayZero[0] = true
	dayOne[1] = true
	vpA := reg.Intern(dayZero)
	vpB := reg.Intern(dayOne)

	d := &transit.Dataset{
		StopAreas:   []transit.StopArea{{ID: 0}, {ID: 1}, {ID: 2}},
		StopPoints:  []transit.StopPoint{{ID: 0, StopArea: 0}, {ID: 1, StopArea: 1}, {ID: 2, StopArea: 1}, {ID: 3, StopArea: 2}},
		RoutePoints: []transit.RoutePoint{{ID: 0, StopPoint: 0}, {ID: 1, StopPoint: 1}, {ID: 2, StopPoint: 2}, {ID: 3, StopPoint: 3}},
		StopTimes: []transit.StopTime{
			{ID: 0, ArrivalTime: 82800, DepartureTime: 82800, RoutePoint: 0}, // A @ stop1, 23:00
			{ID: 1, ArrivalTime: 300, DepartureTime: 300, RoutePoint: 1},     // A @ stop2, 00:05 next day
			{ID: 2, ArrivalTime: 600, DepartureTime: 600, RoutePoint: 2},     // B @ stop2, 00:10 next day
			{ID: 3, ArrivalTime: 1200, DepartureTime: 1200, RoutePoint: 3},   // B @ stop3, 00:20 next day
		},
		VehicleJourneys: []transit.VehicleJourney{
			{ID: 0, StopTimeList: []transit.StopTimeID{0, 1}, ValidityPattern: vpA},
			{ID: 1, StopTimeList: []transit.StopTimeID{2, 3}, ValidityPattern: vpB},
		},
		Calendar: reg,
	}
	g, err := builder.BuildGraph(d)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	p := Compute(g, d, reg, 0, 2, 79200, 0) // depart 22:00, day 0
	if p.Empty() {
		t.Fatal("expected a path across the day boundary")
	}
	wantSA := []int{0, 1, 1, 2}
	if len(p.Items) != len(wantSA) {
		t.Fatalf("got %d items, want %d: %+v", len(p.Items), len(wantSA), p.Items)
	}
	for i, sa := range wantSA {
		if p.Items[i].StopArea != sa {
			t.Errorf("item %d stop area = %d, want %d", i, p.Items[i].StopArea, sa)
		}
	}
	if p.Items[0].Day != 0 {
		t.Errorf("first item day = %d, want 0", p.Items[0].Day)
	}
	if p.Items[3].Day != 1 {
		t.Errorf("last item day = %d, want 1", p.Items[3].Day)
	}
}

// Scenario 4 (spec §8.4): Validity-pattern gating. VJ A runs only day 0,
// VJ B only day 1, same stops.
func TestValidityPatternGating(t *testing.T) {
	reg := calendar.NewRegistry()
	var dayZero, dayOne calendar.Mask
	dayZero[0] = true
	dayOne[1] = true
	vpA := reg.Intern(dayZero)
	vpB := reg.Intern(dayOne)

	d := &transit.Dataset{
		StopAreas:   []transit.StopArea{{ID: 0}, {ID: 1}},
		StopPoints:  []transit.StopPoint{{ID: 0, StopArea: 0}, {ID: 1, StopArea: 1}},
		RoutePoints: []transit.RoutePoint{{ID: 0, StopPoint: 0}, {ID: 1, StopPoint: 1}},
		StopTimes: []transit.StopTime{
			{ID: 0, ArrivalTime: 8000, DepartureTime: 8000, RoutePoint: 0},
			{ID: 1, ArrivalTime: 8200, DepartureTime: 8200, RoutePoint: 1},
			{ID: 2, ArrivalTime: 9000, DepartureTime: 9000, RoutePoint: 0},
			{ID: 3, ArrivalTime: 9200, DepartureTime: 9200, RoutePoint: 1},
		},
		VehicleJourneys: []transit.VehicleJourney{
			{ID: 0, StopTimeList: []transit.StopTimeID{0, 1}, ValidityPattern: vpA},
			{ID: 1, StopTimeList: []transit.StopTimeID{2, 3}, ValidityPattern: vpB},
		},
		Calendar: reg,
	}
	g, err := builder.BuildGraph(d)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	if p := Compute(g, d, reg, 0, 1, 7900, 0); p.Empty() || p.Items[len(p.Items)-1].Seconds != 8200 {
		t.Fatalf("day 0 query: got %+v, want arrival 8200", p)
	}
	if p := Compute(g, d, reg, 0, 1, 7900, 1); p.Empty() || p.Items[len(p.Items)-1].Seconds != 9200 {
		t.Fatalf("day 1 query: got %+v, want arrival 9200", p)
	}
	if p := Compute(g, d, reg, 0, 1, 7900, 2); !p.Empty() {
		t.Fatalf("day 2 query: expected empty path, got %+v", p)
	}
}

func TestMakeItineraryIdempotentAndGroupsTrajets(t *testing.T) {
	reg, always := alwaysValidRegistry()
	d := &transit.Dataset{
		StopAreas: []transit.StopArea{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}},
		StopPoints: []transit.StopPoint{
			{ID: 0, StopArea: 0}, {ID: 1, StopArea: 1}, {ID: 2, StopArea: 2}, {ID: 3, StopArea: 1}, {ID: 4, StopArea: 3},
		},
		RoutePoints: []transit.RoutePoint{
			{ID: 0, StopPoint: 0}, {ID: 1, StopPoint: 1}, {ID: 2, StopPoint: 2}, {ID: 3, StopPoint: 3}, {ID: 4, StopPoint: 4},
		},
		StopTimes: []transit.StopTime{
			{ID: 0, ArrivalTime: 8000, DepartureTime: 8000, RoutePoint: 0},
			{ID: 1, ArrivalTime: 8100, DepartureTime: 8100, RoutePoint: 1},
			{ID: 2, ArrivalTime: 7800, DepartureTime: 7800, RoutePoint: 2},
			{ID: 3, ArrivalTime: 8300, DepartureTime: 8400, RoutePoint: 3},
			{ID: 4, ArrivalTime: 8600, DepartureTime: 8600, RoutePoint: 4},
		},
		VehicleJourneys: []transit.VehicleJourney{
			{ID: 0, StopTimeList: []transit.StopTimeID{0, 1}, ValidityPattern: always},
			{ID: 1, StopTimeList: []transit.StopTimeID{2, 3, 4}, ValidityPattern: always},
		},
		Calendar: reg,
	}
	g, err := builder.BuildGraph(d)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	raw := Compute(g, d, reg, 0, 3, 7900, 0)
	once := MakeItinerary(raw)
	twice := MakeItinerary(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("MakeItinerary not idempotent:\n%+v\n%+v", once, twice)
	}
	if len(once.Trajets) != 2 {
		t.Fatalf("expected 2 trajets (split at the transfer), got %d: %+v", len(once.Trajets), once.Trajets)
	}
}
