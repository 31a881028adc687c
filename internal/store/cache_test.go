package store

import (
	"path/filepath"
	"testing"

	"github.com/antigravity/transitcore/internal/calendar"
	"github.com/antigravity/transitcore/internal/transit"
)

func sampleDataset() *transit.Dataset {
	reg := calendar.NewRegistry()
	return &transit.Dataset{
		StopAreas:  []transit.StopArea{{ID: 0, Name: "stop1"}},
		StopPoints: []transit.StopPoint{{ID: 0, StopArea: 0}},
		RoutePoints: []transit.RoutePoint{{ID: 0, StopPoint: 0}},
		StopTimes: []transit.StopTime{
			{ID: 0, ArrivalTime: 8000, DepartureTime: 8000, RoutePoint: 0},
		},
		VehicleJourneys: []transit.VehicleJourney{
			{ID: 0, StopTimeList: []transit.StopTimeID{0}, ValidityPattern: 0},
		},
		Calendar: reg,
	}
}

func TestUnchangedIsFalseOnFirstLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	c, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	fp := Hash(sampleDataset())
	unchanged, err := c.Unchanged("feed-a", fp)
	if err != nil {
		t.Fatalf("Unchanged: %v", err)
	}
	if unchanged {
		t.Fatal("expected unchanged to be false before any snapshot is recorded")
	}
}

func TestRecordThenUnchangedDetectsNoDrift(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	c, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	d := sampleDataset()
	fp := Hash(d)
	if err := c.Record("feed-a", fp); err != nil {
		t.Fatalf("Record: %v", err)
	}

	unchanged, err := c.Unchanged("feed-a", Hash(d))
	if err != nil {
		t.Fatalf("Unchanged: %v", err)
	}
	if !unchanged {
		t.Fatal("expected unchanged to be true for an identical re-parse")
	}
}

func TestHashDetectsScheduleDrift(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	c, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	d := sampleDataset()
	if err := c.Record("feed-a", Hash(d)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	d.StopTimes[0].DepartureTime = 8500 // schedule changed
	unchanged, err := c.Unchanged("feed-a", Hash(d))
	if err != nil {
		t.Fatalf("Unchanged: %v", err)
	}
	if unchanged {
		t.Fatal("expected a changed departure time to be detected")
	}
}
