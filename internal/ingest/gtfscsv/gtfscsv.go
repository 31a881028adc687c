// Package gtfscsv populates a transit.Dataset from a directory of
// GTFS-style CSV files (stops.txt, stop_times.txt, trips.txt,
// calendar.txt), unmarshaled with github.com/gocarina/gocsv the way
// tidbyt-gtfs/parse unmarshals the same four files into its own storage
// layer. A stop with no parent_station becomes its own stop area; a stop
// with one becomes a stop point of that area. A route point is created per
// distinct (route_id, stop_id) pair referenced from stop_times.txt, shared
// across every trip of that route visiting that physical stop, so two
// different lines serving the same stop get distinct route points — the
// graph builder's same-route waiting chains only ever link departures of
// the same route, and a real line change at a shared stop goes through a
// timed TAtoTDTransfer edge instead of collapsing into a free wait.
package gtfscsv

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/antigravity/transitcore/internal/calendar"
	"github.com/antigravity/transitcore/internal/errs"
	"github.com/antigravity/transitcore/internal/transit"
)

type stopRow struct {
	ID            string `csv:"stop_id"`
	Name          string `csv:"stop_name"`
	ParentStation string `csv:"parent_station"`
}

type tripRow struct {
	TripID    string `csv:"trip_id"`
	RouteID   string `csv:"route_id"`
	ServiceID string `csv:"service_id"`
}

type stopTimeRow struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	StopSequence  int    `csv:"stop_sequence"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
}

type calendarRow struct {
	ServiceID string `csv:"service_id"`
	StartDate string `csv:"start_date"`
	Monday    int8   `csv:"monday"`
	Tuesday   int8   `csv:"tuesday"`
	Wednesday int8   `csv:"wednesday"`
	Thursday  int8   `csv:"thursday"`
	Friday    int8   `csv:"friday"`
	Saturday  int8   `csv:"saturday"`
	Sunday    int8   `csv:"sunday"`
}

// Load reads stops.txt, calendar.txt, trips.txt and stop_times.txt from
// dir and assembles a transit.Dataset.
func Load(dir string) (*transit.Dataset, error) {
	stops, err := readRows[stopRow](filepath.Join(dir, "stops.txt"))
	if err != nil {
		return nil, err
	}
	calendars, err := readRows[calendarRow](filepath.Join(dir, "calendar.txt"))
	if err != nil {
		return nil, err
	}
	trips, err := readRows[tripRow](filepath.Join(dir, "trips.txt"))
	if err != nil {
		return nil, err
	}
	stopTimes, err := readRows[stopTimeRow](filepath.Join(dir, "stop_times.txt"))
	if err != nil {
		return nil, err
	}
	return build(stops, calendars, trips, stopTimes)
}

func readRows[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Sprintf("opening %s", path))
	}
	defer f.Close()

	var rows []T
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, errs.Wrap(err, fmt.Sprintf("unmarshaling %s", path))
	}
	return rows, nil
}

// weekdayMask builds a 366-day mask that repeats c's day-of-week bitset
// every day starting from its StartDate, the simplest reading of a GTFS
// calendar.txt row that has no explicit multi-year span in this dataset
// contract (spec §3's ValidityPattern is a flat 366-bit mask, not a
// weekday-plus-range rule).
func weekdayMask(c calendarRow) (calendar.Mask, error) {
	start, err := time.ParseInLocation("20060102", c.StartDate, time.UTC)
	if err != nil {
		return calendar.Mask{}, errs.Invalid("calendar %s: parsing start_date: %v", c.ServiceID, err)
	}
	active := [7]bool{
		time.Sunday:    c.Sunday == 1,
		time.Monday:    c.Monday == 1,
		time.Tuesday:   c.Tuesday == 1,
		time.Wednesday: c.Wednesday == 1,
		time.Thursday:  c.Thursday == 1,
		time.Friday:    c.Friday == 1,
		time.Saturday:  c.Saturday == 1,
	}
	var mask calendar.Mask
	for day := 0; day < calendar.Days; day++ {
		weekday := start.AddDate(0, 0, day).Weekday()
		mask[day] = active[weekday]
	}
	return mask, nil
}

// parseClock converts a GTFS "H+:MM:SS" time (hour may exceed 24 for a
// past-midnight trip) into seconds-of-day, matching StopTime's contract.
func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected H:MM:SS, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("invalid second in %q: %w", s, err)
	}
	return h*3600 + m*60 + sec, nil
}

func build(stops []stopRow, calendars []calendarRow, trips []tripRow, stopTimes []stopTimeRow) (*transit.Dataset, error) {
	reg := calendar.NewRegistry()
	serviceToVP := make(map[string]calendar.Index, len(calendars))
	for _, c := range calendars {
		mask, err := weekdayMask(c)
		if err != nil {
			return nil, err
		}
		serviceToVP[c.ServiceID] = reg.Intern(mask)
	}

	// A stop with a parent_station is a platform of that area; a stop
	// with none is its own area.
	saIndex := make(map[string]transit.StopAreaID)
	var stopAreas []transit.StopArea
	areaOf := func(stopID string) string {
		for _, s := range stops {
			if s.ID == stopID && s.ParentStation != "" {
				return s.ParentStation
			}
		}
		return stopID
	}
	for _, s := range stops {
		area := areaOf(s.ID)
		if _, ok := saIndex[area]; !ok {
			saIndex[area] = transit.StopAreaID(len(stopAreas))
			stopAreas = append(stopAreas, transit.StopArea{ID: saIndex[area], Name: area})
		}
	}

	spIndex := make(map[string]transit.StopPointID, len(stops))
	var stopPoints []transit.StopPoint
	for _, s := range stops {
		area := areaOf(s.ID)
		spIndex[s.ID] = transit.StopPointID(len(stopPoints))
		stopPoints = append(stopPoints, transit.StopPoint{
			ID: spIndex[s.ID], StopArea: saIndex[area], Name: s.Name,
		})
	}

	rpIndex := make(map[string]transit.RoutePointID)
	var routePoints []transit.RoutePoint
	routePointFor := func(routeID, stopID string) (transit.RoutePointID, error) {
		key := routeID + "\x00" + stopID
		if rp, ok := rpIndex[key]; ok {
			return rp, nil
		}
		sp, ok := spIndex[stopID]
		if !ok {
			return 0, errs.Invalid("stop_times references unknown stop_id %q", stopID)
		}
		rp := transit.RoutePointID(len(routePoints))
		rpIndex[key] = rp
		routePoints = append(routePoints, transit.RoutePoint{ID: rp, StopPoint: sp})
		return rp, nil
	}

	tripServiceID := make(map[string]string, len(trips))
	for _, tr := range trips {
		tripServiceID[tr.TripID] = tr.ServiceID
	}

	stopTimesByTrip := make(map[string][]stopTimeRow)
	for _, st := range stopTimes {
		stopTimesByTrip[st.TripID] = append(stopTimesByTrip[st.TripID], st)
	}

	var allStopTimes []transit.StopTime
	var vjs []transit.VehicleJourney
	for _, tr := range trips {
		rows := stopTimesByTrip[tr.TripID]
		sortBySequence(rows)

		vp, ok := serviceToVP[tr.ServiceID]
		if !ok {
			return nil, errs.Invalid("trip %s references unknown service_id %q", tr.TripID, tr.ServiceID)
		}

		var stIDs []transit.StopTimeID
		for _, row := range rows {
			rp, err := routePointFor(tr.RouteID, row.StopID)
			if err != nil {
				return nil, err
			}
			arr, err := parseClock(row.ArrivalTime)
			if err != nil {
				return nil, errs.Invalid("trip %s stop %s: arrival_time: %v", tr.TripID, row.StopID, err)
			}
			dep, err := parseClock(row.DepartureTime)
			if err != nil {
				return nil, errs.Invalid("trip %s stop %s: departure_time: %v", tr.TripID, row.StopID, err)
			}
			stID := transit.StopTimeID(len(allStopTimes))
			allStopTimes = append(allStopTimes, transit.StopTime{
				ID: stID, ArrivalTime: arr, DepartureTime: dep, RoutePoint: rp,
			})
			stIDs = append(stIDs, stID)
		}

		vjs = append(vjs, transit.VehicleJourney{
			ID: transit.VehicleJourneyID(len(vjs)), StopTimeList: stIDs, ValidityPattern: vp, Name: tr.TripID,
		})
	}

	return &transit.Dataset{
		StopAreas:       stopAreas,
		StopPoints:      stopPoints,
		RoutePoints:     routePoints,
		StopTimes:       allStopTimes,
		VehicleJourneys: vjs,
		Calendar:        reg,
	}, nil
}

func sortBySequence(rows []stopTimeRow) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].StopSequence < rows[j-1].StopSequence; j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}
