// Package query implements the earliest-arrival label-setting search over
// a built time-expanded graph (QE), and the itinerary post-processing
// pass that compresses a raw path into depart/arrive etapes and groups
// them into trajets by stop-area identity transitions.
package query

import (
	"container/heap"

	"github.com/antigravity/transitcore/internal/calendar"
	"github.com/antigravity/transitcore/internal/graph"
	"github.com/antigravity/transitcore/internal/indexspace"
	"github.com/antigravity/transitcore/internal/transit"
)

// PathItem is one stop-area event in an itinerary: a boarding (depart)
// or an alighting (arrive).
type PathItem struct {
	StopArea int
	Seconds  int
	Day      int
	LineID   int // vehicle-journey local id; -1 if not applicable
}

// Path is the ordered result of a query, plus the two summary fields the
// original webservice layer reads alongside the item list.
type Path struct {
	Items     []PathItem
	NbChanges int
	Duration  int
	// Trajets groups Items by stop-area identity transitions: a new
	// trajet starts whenever a stop area repeats (a transfer boundary).
	// Populated by MakeItinerary; nil on a raw Compute result.
	Trajets [][]PathItem
}

// Empty reports whether p carries no path at all: spec §4.5 has QE
// return an empty Path, never an error, when the destination is
// unreachable.
func (p Path) Empty() bool { return len(p.Items) == 0 }

// label is the per-vertex search state. started distinguishes
// "not yet boarded" from "in-journey". vj is the vehicle journey the
// traveller currently holds: -1 means "none yet" (before the first
// boarding, or immediately after a transfer, before the next leg's line
// is known).
type label struct {
	started   bool
	time      int
	arrivalAt int
	day       int
	changes   int
	vj        int
	items     []PathItem
}

// better reports whether a is strictly preferred to b under the spec's
// tie-break order: earliest arrival_at first, then fewer changes, then
// lower elapsed time. day dominates arrival_at since a lower day always
// represents an earlier moment in absolute time.
func better(a, b label) bool {
	if a.day != b.day {
		return a.day < b.day
	}
	if a.arrivalAt != b.arrivalAt {
		return a.arrivalAt < b.arrivalAt
	}
	if a.changes != b.changes {
		return a.changes < b.changes
	}
	return a.time < b.time
}

type pqEntry struct {
	vertex graph.VertexID
	label  label
}

type priorityQueue []pqEntry

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return better(pq[i].label, pq[j].label) }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqEntry)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// Compute runs the label-setting earliest-arrival search from
// srcSALocal to dstSALocal, starting at departSeconds on departDay. It
// returns an empty Path if the destination cannot be settled within the
// one-day rollover horizon; it never returns an error for an
// unreachable destination (spec §4.5).
func Compute(g *graph.Graph, d *transit.Dataset, reg *calendar.Registry, srcSALocal, dstSALocal, departSeconds, departDay int) Path {
	space := g.Space
	origin := graph.VertexID(space.VidOf(indexspace.SA, srcSALocal))

	start := label{started: false, time: 0, arrivalAt: departSeconds, day: departDay, changes: 0, vj: -1}
	best := map[graph.VertexID]label{origin: start}
	settled := make(map[graph.VertexID]bool)

	pq := &priorityQueue{{vertex: origin, label: start}}
	heap.Init(pq)

	for pq.Len() > 0 {
		top := heap.Pop(pq).(pqEntry)
		u, L := top.vertex, top.label
		if settled[u] {
			continue
		}
		settled[u] = true

		if space.StopAreaOf(int(u), d) == dstSALocal {
			item := PathItem{StopArea: dstSALocal, Seconds: L.arrivalAt, Day: L.day, LineID: L.vj}
			return Path{
				Items:     appendItem(L.items, item),
				NbChanges: L.changes,
				Duration:  L.time,
			}
		}

		for _, e := range g.Edges(u) {
			nl, ok := relax(L, u, e, reg, space, d)
			if !ok {
				continue
			}
			if existing, found := best[e.To]; !found || better(nl, existing) {
				best[e.To] = nl
				heap.Push(pq, pqEntry{vertex: e.To, label: nl})
			}
		}
	}
	return Path{}
}

func relax(L label, u graph.VertexID, e graph.Edge, reg *calendar.Registry, space *indexspace.Space, d *transit.Dataset) (label, bool) {
	if !e.Timed {
		return L, true
	}
	if !L.started && e.Kind == graph.TAtoTD {
		return L, true // dwell pass-through: no commitment to a vehicle yet
	}

	dayToCheck := L.day + e.DayShift
	if dayToCheck < 0 || dayToCheck >= calendar.Days {
		return label{}, false
	}
	if !validOn(reg, e.Validity, dayToCheck) {
		return label{}, false
	}
	departAt := e.StartTime
	if e.Kind == graph.TAtoTDTransfer {
		departAt += e.DayShift * 86400 // a rolled-over transfer departs on the next day
	}
	if L.arrivalAt > departAt {
		return label{}, false
	}

	// elapsed accounts for a day rollover within this single edge: the
	// edge's own EndTime is expressed mod 86400, so a crossing leg needs
	// its day-shift folded back in before subtracting StartTime.
	elapsed := func() int { return (e.EndTime + e.DayShift*86400) - e.StartTime }

	if !L.started {
		if e.Kind != graph.TDtoTA {
			return label{}, false
		}
		item := PathItem{StopArea: space.StopAreaOf(int(u), d), Seconds: e.StartTime, Day: L.day, LineID: e.VehicleJourney}
		return label{
			started: true, time: elapsed(), arrivalAt: e.EndTime,
			day: dayToCheck, changes: 0, vj: e.VehicleJourney, items: appendItem(L.items, item),
		}, true
	}

	switch e.Kind {
	case graph.TAtoTDTransfer:
		waited := (e.StartTime + e.DayShift*86400) - L.arrivalAt
		item := PathItem{StopArea: space.StopAreaOf(int(u), d), Seconds: L.arrivalAt, Day: L.day, LineID: L.vj}
		return label{
			started: true, time: L.time + waited, arrivalAt: e.EndTime,
			day: dayToCheck, changes: L.changes + 1, vj: -1, items: appendItem(L.items, item),
		}, true
	case graph.TDtoTA:
		if L.vj == -1 || e.VehicleJourney != L.vj {
			item := PathItem{StopArea: space.StopAreaOf(int(u), d), Seconds: e.StartTime, Day: L.day, LineID: e.VehicleJourney}
			changes := L.changes
			if L.vj != -1 {
				changes++ // another vehicle boarded after a same-route TD->TD wait, with no transfer edge to charge it
			}
			return label{
				started: true, time: L.time + elapsed(), arrivalAt: e.EndTime,
				day: dayToCheck, changes: changes, vj: e.VehicleJourney, items: appendItem(L.items, item),
			}, true
		}
		return label{
			started: true, time: L.time + elapsed(), arrivalAt: e.EndTime,
			day: dayToCheck, changes: L.changes, vj: L.vj, items: L.items,
		}, true
	case graph.TAtoTD:
		return label{
			started: true, time: L.time + elapsed(), arrivalAt: e.EndTime,
			day: dayToCheck, changes: L.changes, vj: L.vj, items: L.items,
		}, true
	default:
		return label{}, false
	}
}

func validOn(reg *calendar.Registry, idx calendar.Index, day int) bool {
	if idx == graph.AlwaysValid {
		return true
	}
	if day < 0 || day >= calendar.Days {
		return false
	}
	return reg.Get(idx)[day]
}

func appendItem(existing []PathItem, item PathItem) []PathItem {
	items := make([]PathItem, len(existing), len(existing)+1)
	copy(items, existing)
	return append(items, item)
}

// MakeItinerary compresses a raw Compute result into alternating
// depart/arrive etapes (merging consecutive same-line legs, which a
// hand-built Path might contain even though Compute itself never emits
// them) and groups the result into trajets split on stop-area repeats.
// It is idempotent: MakeItinerary(MakeItinerary(p)) == MakeItinerary(p).
func MakeItinerary(p Path) Path {
	items := compressEtapes(p.Items)
	return Path{
		Items:     items,
		NbChanges: p.NbChanges,
		Duration:  p.Duration,
		Trajets:   groupTrajets(items),
	}
}

// compressEtapes walks items two at a time (depart, arrive) and folds a
// run of consecutive same-line etapes into a single depart/arrive pair.
func compressEtapes(items []PathItem) []PathItem {
	if len(items) < 2 {
		return append([]PathItem{}, items...)
	}
	out := make([]PathItem, 0, len(items))
	i := 0
	for i+1 < len(items) {
		depart, arrive := items[i], items[i+1]
		for i+3 < len(items) && items[i+2].LineID == depart.LineID && items[i+2].StopArea == arrive.StopArea {
			arrive = items[i+3]
			i += 2
		}
		out = append(out, depart, arrive)
		i += 2
	}
	return out
}

// groupTrajets starts a new trajet whenever the current item's stop
// area equals the previous item's (precsaid) — a transfer boundary.
func groupTrajets(items []PathItem) [][]PathItem {
	if len(items) == 0 {
		return nil
	}
	var trajets [][]PathItem
	var current []PathItem
	precsaid := -1
	for _, it := range items {
		if len(current) > 0 && it.StopArea == precsaid {
			trajets = append(trajets, current)
			current = nil
		}
		current = append(current, it)
		precsaid = it.StopArea
	}
	if len(current) > 0 {
		trajets = append(trajets, current)
	}
	return trajets
}
