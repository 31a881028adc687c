// Package builder constructs the time-expanded graph from a normalized
// transit dataset in four strictly sequential passes: skeleton, trip
// timeline, same-route waiting chains, and inter-route transfers. This
// consolidates the two-builder split of the source engine into one
// construction sequence carrying the union of edge attributes.
package builder

import (
	"github.com/antigravity/transitcore/internal/calendar"
	"github.com/antigravity/transitcore/internal/errs"
	"github.com/antigravity/transitcore/internal/graph"
	"github.com/antigravity/transitcore/internal/indexspace"
	"github.com/antigravity/transitcore/internal/transit"
)

// MinConnection is the minimum inter-route transfer time, in seconds.
const MinConnection = 300

// BuildGraph validates d and constructs the full time-expanded graph.
// It is idempotent: calling it twice on the same dataset yields
// isomorphic graphs.
func BuildGraph(d *transit.Dataset) (*graph.Graph, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	saCount, spCount, rpCount, stCount := d.Sizes()
	space := indexspace.New(indexspace.Sizes{SA: saCount, SP: spCount, RP: rpCount, ST: stCount})
	g := graph.New(space, func(idx int) int { return space.StopAreaOf(idx, d) })

	pass1Skeleton(g, space, d)
	stopTimeToVJ, stopTimeSeq := pass2TripTimeline(g, space, d)
	rpDepartures, arrivalRoster := pass3WaitingChains(g, space, d, stopTimeToVJ, stopTimeSeq)
	pass4Transfers(g, space, d, rpDepartures, arrivalRoster)

	g.Freeze()
	return g, nil
}

func validate(d *transit.Dataset) error {
	rpCount := len(d.RoutePoints)
	for i, st := range d.StopTimes {
		if int(st.RoutePoint) < 0 || int(st.RoutePoint) >= rpCount {
			return errs.Invalid("stop time %d references out-of-range route point %d", i, st.RoutePoint)
		}
	}
	vpCount := 0
	if d.Calendar != nil {
		vpCount = d.Calendar.Len()
	}
	for i, vj := range d.VehicleJourneys {
		if int(vj.ValidityPattern) < 0 || int(vj.ValidityPattern) >= vpCount {
			return errs.Invalid("vehicle journey %d references out-of-range validity pattern %d", i, vj.ValidityPattern)
		}
		for _, stID := range vj.StopTimeList {
			if int(stID) < 0 || int(stID) >= len(d.StopTimes) {
				return errs.Invalid("vehicle journey %d references out-of-range stop time %d", i, stID)
			}
		}
	}
	return nil
}

// pass1Skeleton creates the stop-area -> stop-point -> route-point
// backbone.
func pass1Skeleton(g *graph.Graph, space *indexspace.Space, d *transit.Dataset) {
	for spLocal, sp := range d.StopPoints {
		sa := space.VidOf(indexspace.SA, int(sp.StopArea))
		spv := space.VidOf(indexspace.SP, spLocal)
		g.AddEdge(graph.VertexID(sa), graph.Edge{
			To: graph.VertexID(spv), Kind: graph.SAtoSP, Validity: graph.AlwaysValid, VehicleJourney: -1,
		})
	}
	for rpLocal, rp := range d.RoutePoints {
		spv := space.VidOf(indexspace.SP, int(rp.StopPoint))
		rpv := space.VidOf(indexspace.RP, rpLocal)
		g.AddEdge(graph.VertexID(spv), graph.Edge{
			To: graph.VertexID(rpv), Kind: graph.SPtoRP, Validity: graph.AlwaysValid, VehicleJourney: -1,
		})
	}
}

// pass2TripTimeline creates the arrival/departure vertices' edges for
// every vehicle journey. It returns, for each stop time local id, the
// owning vehicle journey's local id and its zero-based position within
// that journey's stop-time list. Both are passed to pass 3, which does
// not read them, and BuildGraph does not expose them; the query engine
// recovers lines from the edges' VehicleJourney field.
func pass2TripTimeline(g *graph.Graph, space *indexspace.Space, d *transit.Dataset) (stopTimeToVJ []int, stopTimeSeq []int) {
	stopTimeToVJ = make([]int, len(d.StopTimes))
	stopTimeSeq = make([]int, len(d.StopTimes))
	for i := range stopTimeToVJ {
		stopTimeToVJ[i] = -1
	}

	for vjLocal, vj := range d.VehicleJourneys {
		basePattern := vj.ValidityPattern
		for seq, stID := range vj.StopTimeList {
			stLocal := int(stID)
			stopTimeToVJ[stLocal] = vjLocal
			stopTimeSeq[stLocal] = seq
			st := d.StopTimes[stLocal]

			rpv := space.VidOf(indexspace.RP, int(st.RoutePoint))
			tav := space.VidOf(indexspace.TA, stLocal)
			tdv := space.VidOf(indexspace.TD, stLocal)

			// RPi -> TAi: boarding anchor, untimed on the RP side.
			g.AddEdge(graph.VertexID(rpv), graph.Edge{
				To: graph.VertexID(tav), Kind: graph.RPtoTA, Validity: graph.AlwaysValid, VehicleJourney: -1,
			})

			// TAi -> TDi: dwell within one stop time. StartTime/EndTime are
			// reduced mod 86400: ingested times may carry hour >= 24 to mark
			// a past-midnight trip, but the query engine computes elapsed
			// time from already-reduced endpoints, folding any rollover back
			// in via DayShift instead.
			dwellValidity := basePattern
			dwellShift := 0
			if calendar.CrossesMidnight(st.ArrivalTime, st.DepartureTime) {
				dwellValidity = d.Calendar.Intern(calendar.ShiftByOneDay(d.Calendar.Get(basePattern)))
				dwellShift = 1
			}
			g.AddEdge(graph.VertexID(tav), graph.Edge{
				To: graph.VertexID(tdv), Kind: graph.TAtoTD, Validity: dwellValidity,
				StartTime: st.ArrivalTime % 86400, EndTime: st.DepartureTime % 86400, Timed: true,
				DayShift: dwellShift, VehicleJourney: vjLocal,
			})

			if seq >= 1 {
				prevID := vj.StopTimeList[seq-1]
				prev := d.StopTimes[prevID]
				prevTD := space.VidOf(indexspace.TD, int(prevID))

				legValidity := basePattern
				legShift := 0
				if calendar.CrossesMidnight(prev.DepartureTime, st.ArrivalTime) {
					legValidity = d.Calendar.Intern(calendar.ShiftByOneDay(d.Calendar.Get(basePattern)))
					legShift = 1
				}
				g.AddEdge(graph.VertexID(prevTD), graph.Edge{
					To: graph.VertexID(tav), Kind: graph.TDtoTA, Validity: legValidity,
					StartTime: prev.DepartureTime % 86400, EndTime: st.ArrivalTime % 86400, Timed: true,
					DayShift: legShift, VehicleJourney: vjLocal,
				})
			}
		}
	}
	return stopTimeToVJ, stopTimeSeq
}

// tdEntry is one departure event at a route point, used by pass 3/4.
type tdEntry struct {
	vertex    graph.VertexID
	departure int
}

// taEntry is one arrival event within a stop area's roster, used by
// pass 4.
type taEntry struct {
	vertex  graph.VertexID
	arrival int
	rp      int
}

// pass3WaitingChains groups TD vertices by route point and links
// consecutive departures with untimed TD->TD wait edges. It also builds
// the arrival roster per stop area consumed by pass 4.
func pass3WaitingChains(g *graph.Graph, space *indexspace.Space, d *transit.Dataset, stopTimeToVJ, stopTimeSeq []int) (rpDepartures map[int][]tdEntry, arrivalRoster map[int][]taEntry) {
	rpDepartures = make(map[int][]tdEntry)
	arrivalRoster = make(map[int][]taEntry)

	for stLocal, st := range d.StopTimes {
		rp := int(st.RoutePoint)
		tdv := graph.VertexID(space.VidOf(indexspace.TD, stLocal))
		rpDepartures[rp] = append(rpDepartures[rp], tdEntry{vertex: tdv, departure: st.DepartureTime})

		sa := d.StopAreaOfStopPoint(d.StopPointOfRoutePoint(rp))
		tav := graph.VertexID(space.VidOf(indexspace.TA, stLocal))
		arrivalRoster[sa] = append(arrivalRoster[sa], taEntry{vertex: tav, arrival: st.ArrivalTime, rp: rp})
	}

	for rp, entries := range rpDepartures {
		sortTDByDeparture(entries)
		rpDepartures[rp] = entries
		for i := 1; i < len(entries); i++ {
			g.AddEdge(entries[i-1].vertex, graph.Edge{
				To: entries[i].vertex, Kind: graph.TDtoTD, Validity: graph.AlwaysValid, VehicleJourney: -1,
			})
		}
	}
	for sa, entries := range arrivalRoster {
		sortTAByArrival(entries)
		arrivalRoster[sa] = entries
	}
	return rpDepartures, arrivalRoster
}

func sortTDByDeparture(e []tdEntry) {
	for i := 1; i < len(e); i++ {
		for j := i; j > 0 && e[j].departure < e[j-1].departure; j-- {
			e[j], e[j-1] = e[j-1], e[j]
		}
	}
}

func sortTAByArrival(e []taEntry) {
	for i := 1; i < len(e); i++ {
		for j := i; j > 0 && e[j].arrival < e[j-1].arrival; j-- {
			e[j], e[j-1] = e[j-1], e[j]
		}
	}
}

// rpCursor walks a route point's sorted departures forward as
// successive arrivals at the stop area are processed. dayShifted
// records whether this (stop area, route point) pair has already used
// its one allowed 86400 advance (Open Question (b)): once used, a
// second rollover is never attempted again and the connection is simply
// dropped.
type rpCursor struct {
	idx        int
	dayShifted bool
}

// pass4Transfers wires inter-route transfer edges: for every arrival at
// a stop area, advance every other route point's departure cursor
// (shared across the whole stop area's TA roster, processed in arrival
// order so the cursor only moves forward, except that a next-day rollover
// rescans from the earliest departure and leaves the cursor there) to the
// first feasible departure respecting MinConnection.
func pass4Transfers(g *graph.Graph, space *indexspace.Space, d *transit.Dataset, rpDepartures map[int][]tdEntry, arrivalRoster map[int][]taEntry) {
	saToRPs := make(map[int][]int)
	for rpLocal, rp := range d.RoutePoints {
		sa := d.StopAreaOfStopPoint(int(rp.StopPoint))
		saToRPs[sa] = append(saToRPs[sa], rpLocal)
	}

	for sa, rps := range saToRPs {
		cursors := make(map[int]*rpCursor, len(rps))
		for _, rp := range rps {
			cursors[rp] = &rpCursor{}
		}
		for _, ta := range arrivalRoster[sa] {
			for _, rp := range rps {
				if rp == ta.rp {
					continue // self-transfer forbidden
				}
				tdList := rpDepartures[rp]
				if len(tdList) == 0 {
					continue
				}
				cur := cursors[rp]
				if idx, ok := advance(tdList, cur.idx, ta.arrival, 0); ok {
					cur.idx = idx
					shift := 0
					if calendar.CrossesMidnight(ta.arrival, tdList[idx].departure) {
						shift = 1
					}
					g.AddEdge(ta.vertex, graph.Edge{
						To: tdList[idx].vertex, Kind: graph.TAtoTDTransfer, Validity: graph.AlwaysValid,
						StartTime: tdList[idx].departure % 86400, EndTime: tdList[idx].departure % 86400, Timed: true,
						DayShift: shift, VehicleJourney: -1,
					})
					continue
				}
				if cur.dayShifted {
					continue // already used the one allowed rollover for this (sa,rp)
				}
				if idx, ok := advance(tdList, 0, ta.arrival, 1); ok {
					cur.idx = idx
					cur.dayShifted = true
					g.AddEdge(ta.vertex, graph.Edge{
						To: tdList[idx].vertex, Kind: graph.TAtoTDTransfer, Validity: graph.AlwaysValid,
						StartTime: tdList[idx].departure % 86400, EndTime: tdList[idx].departure % 86400, Timed: true,
						DayShift: 1, VehicleJourney: -1,
					})
				}
				// else: no feasible departure at all, drop the connection.
			}
		}
	}
}

// advance scans tdList from startIdx for the first departure satisfying
// departure - arrival + dayShift*86400 >= MinConnection.
func advance(tdList []tdEntry, startIdx, arrival, dayShift int) (int, bool) {
	for i := startIdx; i < len(tdList); i++ {
		if tdList[i].departure-arrival+dayShift*86400 >= MinConnection {
			return i, true
		}
	}
	return 0, false
}
