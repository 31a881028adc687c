// Package pgsql loads a transit.Dataset directly from a relational
// schema of stops, lines, line_stops and schedules tables, an ingest
// adapter alongside gtfscsv and netex that exercises
// github.com/jackc/pgx/v5/pgxpool for dataset construction itself. It
// follows the same three-phase query sequence the teacher's RAPTOR
// loader used (stops, then per-(line,direction) patterns, then
// schedules), but emits index-space Dataset rows instead of a
// round-based RAPTOR structure.
package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antigravity/transitcore/internal/calendar"
	"github.com/antigravity/transitcore/internal/errs"
	"github.com/antigravity/transitcore/internal/transit"
)

// dayTypes are the three service patterns the schema's schedules.day_type
// column distinguishes. Each becomes its own interned validity pattern,
// repeating weekly across the full horizon with day index 0 taken as a
// Monday reference.
var dayTypes = []string{"weekday", "saturday", "sunday"}

func dayTypeMask(dayType string) calendar.Mask {
	var active map[time.Weekday]bool
	switch dayType {
	case "weekday":
		active = map[time.Weekday]bool{
			time.Monday: true, time.Tuesday: true, time.Wednesday: true,
			time.Thursday: true, time.Friday: true,
		}
	case "saturday":
		active = map[time.Weekday]bool{time.Saturday: true}
	case "sunday":
		active = map[time.Weekday]bool{time.Sunday: true}
	}
	var m calendar.Mask
	for day := 0; day < calendar.Days; day++ {
		weekday := time.Weekday((int(time.Monday) + day) % 7)
		m[day] = active[weekday]
	}
	return m
}

type pattern struct{ lineID, direction int }

// Load builds a transit.Dataset from pool's stops/lines/line_stops/
// schedules tables.
func Load(ctx context.Context, pool *pgxpool.Pool) (*transit.Dataset, error) {
	reg := calendar.NewRegistry()
	dayTypeVP := make(map[string]calendar.Index, len(dayTypes))
	for _, dt := range dayTypes {
		dayTypeVP[dt] = reg.Intern(dayTypeMask(dt))
	}

	d := &transit.Dataset{Calendar: reg}

	dbToSP, err := loadStops(ctx, pool, d)
	if err != nil {
		return nil, err
	}

	patterns, err := loadPatterns(ctx, pool)
	if err != nil {
		return nil, err
	}

	for _, p := range patterns {
		if err := loadPattern(ctx, pool, d, p, dbToSP, dayTypeVP); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func loadStops(ctx context.Context, pool *pgxpool.Pool, d *transit.Dataset) (map[int]transit.StopPointID, error) {
	dbToSP := make(map[int]transit.StopPointID)

	rows, err := pool.Query(ctx, "SELECT id, name_fr FROM stops")
	if err != nil {
		return nil, errs.Wrap(err, "querying stops")
	}
	defer rows.Close()

	for rows.Next() {
		var dbID int
		var name string
		if err := rows.Scan(&dbID, &name); err != nil {
			return nil, errs.Wrap(err, "scanning stop row")
		}
		// The schema has no area/platform split: each physical stop is
		// its own stop area with a single stop point.
		sa := transit.StopAreaID(len(d.StopAreas))
		d.StopAreas = append(d.StopAreas, transit.StopArea{ID: sa, Name: name})
		sp := transit.StopPointID(len(d.StopPoints))
		d.StopPoints = append(d.StopPoints, transit.StopPoint{ID: sp, StopArea: sa, Name: name})
		dbToSP[dbID] = sp
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "reading stops")
	}
	return dbToSP, nil
}

func loadPatterns(ctx context.Context, pool *pgxpool.Pool) ([]pattern, error) {
	rows, err := pool.Query(ctx, "SELECT DISTINCT line_id, direction FROM line_stops")
	if err != nil {
		return nil, errs.Wrap(err, "querying line patterns")
	}
	defer rows.Close()

	var patterns []pattern
	for rows.Next() {
		var p pattern
		if err := rows.Scan(&p.lineID, &p.direction); err != nil {
			return nil, errs.Wrap(err, "scanning line pattern row")
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// loadPattern expands one (line, direction) pattern into route points and
// every scheduled vehicle journey over them.
func loadPattern(ctx context.Context, pool *pgxpool.Pool, d *transit.Dataset, p pattern, dbToSP map[int]transit.StopPointID, dayTypeVP map[string]calendar.Index) error {
	stopRows, err := pool.Query(ctx, "SELECT stop_id FROM line_stops WHERE line_id=$1 AND direction=$2 ORDER BY stop_sequence", p.lineID, p.direction)
	if err != nil {
		return errs.Wrap(err, fmt.Sprintf("querying stops for line %d direction %d", p.lineID, p.direction))
	}
	var dbStopIDs []int
	for stopRows.Next() {
		var sid int
		if err := stopRows.Scan(&sid); err != nil {
			stopRows.Close()
			return errs.Wrap(err, "scanning line_stops row")
		}
		dbStopIDs = append(dbStopIDs, sid)
	}
	stopRows.Close()
	if len(dbStopIDs) < 2 {
		return nil
	}

	routePoints := make([]transit.RoutePointID, len(dbStopIDs))
	for i, dbID := range dbStopIDs {
		sp, ok := dbToSP[dbID]
		if !ok {
			return errs.Invalid("line %d direction %d references unknown stop %d", p.lineID, p.direction, dbID)
		}
		rp := transit.RoutePointID(len(d.RoutePoints))
		d.RoutePoints = append(d.RoutePoints, transit.RoutePoint{ID: rp, StopPoint: sp, Sequence: i})
		routePoints[i] = rp
	}

	for _, dayType := range dayTypes {
		if err := loadSchedules(ctx, pool, d, p, dbStopIDs[0], dayType, dayTypeVP[dayType], routePoints); err != nil {
			return err
		}
	}
	return nil
}

// loadSchedules fans out every recorded departure_time at the pattern's
// first stop into a full vehicle journey, extrapolating downstream stop
// times at a fixed per-hop cadence (no per-stop timing is recorded in
// this schema beyond the first stop).
func loadSchedules(ctx context.Context, pool *pgxpool.Pool, d *transit.Dataset, p pattern, firstStopDBID int, dayType string, vp calendar.Index, routePoints []transit.RoutePointID) error {
	const secondsPerHop = 180

	rows, err := pool.Query(ctx, `
		SELECT departure_time FROM schedules
		WHERE line_id=$1 AND direction=$2 AND stop_id=$3 AND day_type=$4
		ORDER BY departure_time
	`, p.lineID, p.direction, firstStopDBID, dayType)
	if err != nil {
		return errs.Wrap(err, fmt.Sprintf("querying schedules for line %d direction %d %s", p.lineID, p.direction, dayType))
	}
	var startTimes []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			rows.Close()
			return errs.Wrap(err, "scanning schedule row")
		}
		startTimes = append(startTimes, t)
	}
	rows.Close()

	for _, st := range startTimes {
		start, err := time.Parse("15:04:05", st)
		if err != nil {
			return errs.Invalid("line %d: invalid departure_time %q: %v", p.lineID, st, err)
		}
		current := start.Hour()*3600 + start.Minute()*60 + start.Second()

		stIDs := make([]transit.StopTimeID, len(routePoints))
		for i, rp := range routePoints {
			stID := transit.StopTimeID(len(d.StopTimes))
			d.StopTimes = append(d.StopTimes, transit.StopTime{
				ID: stID, ArrivalTime: current, DepartureTime: current, RoutePoint: rp,
			})
			stIDs[i] = stID
			current += secondsPerHop
		}
		d.VehicleJourneys = append(d.VehicleJourneys, transit.VehicleJourney{
			ID: transit.VehicleJourneyID(len(d.VehicleJourneys)), StopTimeList: stIDs, ValidityPattern: vp,
		})
	}
	return nil
}
