// Package transit holds the normalized input entities the graph builder
// consumes (spec §3, §6): stop areas, stop points, route points, stop
// times, vehicle journeys, and validity patterns, each addressed by
// stable zero-based local indices. The typed-int id convention and
// json-tagged row shape continue the style of the teacher's RAPTOR data
// structures.
package transit

import "github.com/antigravity/transitcore/internal/calendar"

type StopAreaID int32
type StopPointID int32
type RoutePointID int32
type StopTimeID int32
type VehicleJourneyID int32

// StopArea is a logical station; it has no parent.
type StopArea struct {
	ID   StopAreaID `json:"id"`
	Name string     `json:"name"`
}

// StopPoint is a physical platform belonging to one StopArea.
type StopPoint struct {
	ID       StopPointID `json:"id"`
	StopArea StopAreaID  `json:"stop_area"`
	Name     string      `json:"name,omitempty"`
}

// RoutePoint is an ordered position of a route through a StopPoint.
type RoutePoint struct {
	ID        RoutePointID `json:"id"`
	StopPoint StopPointID  `json:"stop_point"`
	// Sequence is the route point's ordinal position within its line's
	// pattern; informational only, not consulted by the builder.
	Sequence int `json:"sequence,omitempty"`
}

// StopTime is a single (arrival, departure) pair at a RoutePoint within a
// VehicleJourney. ArrivalTime/DepartureTime are seconds-of-day and may
// exceed 86400 to denote next-day semantics.
type StopTime struct {
	ID            StopTimeID   `json:"id"`
	ArrivalTime   int          `json:"arrival_time"`
	DepartureTime int          `json:"departure_time"`
	RoutePoint    RoutePointID `json:"route_point"`
}

// VehicleJourney is an ordered scheduled trip of one vehicle along a
// sequence of stop times, governed by a single validity pattern.
type VehicleJourney struct {
	ID               VehicleJourneyID `json:"id"`
	StopTimeList     []StopTimeID     `json:"stop_time_list"`
	ValidityPattern  calendar.Index   `json:"validity_pattern"`
	Name             string           `json:"name,omitempty"`
}

// ValidityPatternRow is the on-the-wire shape of a 366-day bitmask before
// it is interned into a calendar.Registry.
type ValidityPatternRow struct {
	BeginningDate string        `json:"beginning_date"`
	Days          calendar.Mask `json:"days"`
}

// Dataset is the full input contract consumed by the graph builder:
// ordered sequences with stable zero-based indices matching the
// StopAreaID/StopPointID/... typed ints above.
type Dataset struct {
	StopAreas        []StopArea
	StopPoints       []StopPoint
	RoutePoints      []RoutePoint
	StopTimes        []StopTime
	VehicleJourneys  []VehicleJourney
	Calendar         *calendar.Registry
}

// Sizes reports the per-kind counts the index space is built from.
func (d *Dataset) Sizes() (sa, sp, rp, st int) {
	return len(d.StopAreas), len(d.StopPoints), len(d.RoutePoints), len(d.StopTimes)
}

// StopAreaOfStopPoint implements indexspace.Lookup.
func (d *Dataset) StopAreaOfStopPoint(spLocal int) int {
	return int(d.StopPoints[spLocal].StopArea)
}

// StopPointOfRoutePoint implements indexspace.Lookup.
func (d *Dataset) StopPointOfRoutePoint(rpLocal int) int {
	return int(d.RoutePoints[rpLocal].StopPoint)
}

// RoutePointOfStopTime implements indexspace.Lookup.
func (d *Dataset) RoutePointOfStopTime(stLocal int) int {
	return int(d.StopTimes[stLocal].RoutePoint)
}
