// Package graph defines the time-expanded graph's vertex and edge record
// types and a CSR-after-build adjacency representation: per-vertex
// growable edge lists during construction, frozen into a flat edge array
// plus per-vertex offsets once the builder finishes.
package graph

import (
	"github.com/antigravity/transitcore/internal/calendar"
	"github.com/antigravity/transitcore/internal/indexspace"
)

// VertexID is a dense index into the graph's vertex space, as produced by
// indexspace.Space.VidOf.
type VertexID int

// EdgeKind is the closed set of edge kinds the builder emits.
type EdgeKind uint8

const (
	SAtoSP     EdgeKind = iota // stop area -> stop point, untimed
	SPtoRP                     // stop point -> route point, untimed
	RPtoTA                     // route point -> arrival event, boarding anchor
	TAtoTD                     // arrival -> departure within one stop time, dwell, timed
	TDtoTA                     // consecutive stop times of one vehicle journey, in-vehicle, timed
	TDtoTD                     // same route point, consecutive departures, wait
	TAtoTDTransfer             // inter-route transfer, timed
)

func (k EdgeKind) String() string {
	switch k {
	case SAtoSP:
		return "SA->SP"
	case SPtoRP:
		return "SP->RP"
	case RPtoTA:
		return "RP->TA"
	case TAtoTD:
		return "TA->TD"
	case TDtoTA:
		return "TD->TA"
	case TDtoTD:
		return "TD->TD"
	case TAtoTDTransfer:
		return "TA->TD(transfer)"
	default:
		return "?"
	}
}

// AlwaysValid is the sentinel validity-pattern index carried by untimed
// and transfer edges, which are never consulted against the calendar at
// query time.
const AlwaysValid calendar.Index = -1

// Edge is a directed edge of the time-expanded graph.
type Edge struct {
	To       VertexID
	Kind     EdgeKind
	Validity calendar.Index
	StartTime int // seconds-of-day; meaningless for untimed edges
	EndTime   int
	Timed     bool
	// DayShift is 1 when traversing this edge implies the calendar day
	// has advanced by one relative to the label that reached its source
	// (a past-midnight in-vehicle/dwell leg, or a transfer that had to
	// roll over to the next day's first departure). 0 otherwise.
	DayShift int
	// VehicleJourney is the VJ local id carried by TD->TA edges for line
	// recovery during path reconstruction, and also by TA->TD dwell edges;
	// -1 on every other edge kind.
	VehicleJourney int
}

// Vertex carries its kind and stop-area id inline, per the design note
// that a systems-language port should avoid recomputing kind by
// index-range comparison on every access.
type Vertex struct {
	ID        VertexID
	Kind      indexspace.Kind
	StopArea  int
	LocalID   int
}

// Graph is the frozen time-expanded graph. During construction edges are
// appended to per-vertex growable slices (the pending field); Freeze
// compacts them into a single CSR-style array with
// per-vertex offsets for cache-friendly query-time traversal.
type Graph struct {
	Space    *indexspace.Space
	Vertices []Vertex

	// CSR form, valid only after Freeze.
	edgeOffsets []int32 // len = len(Vertices)+1
	edges       []Edge

	// build-time form, nil after Freeze.
	pending [][]Edge
	frozen  bool
}

// New allocates an empty graph over the given index space, with no edges
// yet. All vertices are pre-created with their kind/stop-area metadata.
func New(space *indexspace.Space, stopAreaOf func(idx int) int) *Graph {
	n := space.Total()
	g := &Graph{
		Space:    space,
		Vertices: make([]Vertex, n),
		pending:  make([][]Edge, n),
	}
	for i := 0; i < n; i++ {
		kind, local := space.LocalOf(i)
		g.Vertices[i] = Vertex{
			ID:       VertexID(i),
			Kind:     kind,
			LocalID:  local,
			StopArea: stopAreaOf(i),
		}
	}
	return g
}

// AddEdge appends e to from's pending adjacency list. Must be called
// before Freeze.
func (g *Graph) AddEdge(from VertexID, e Edge) {
	if g.frozen {
		panic("graph: AddEdge after Freeze")
	}
	g.pending[from] = append(g.pending[from], e)
}

// Freeze compacts the per-vertex pending adjacency lists into a single
// CSR array. After Freeze, AddEdge may no longer be called and Edges
// becomes the only way to traverse adjacency.
func (g *Graph) Freeze() {
	if g.frozen {
		return
	}
	n := len(g.Vertices)
	g.edgeOffsets = make([]int32, n+1)
	total := 0
	for i := 0; i < n; i++ {
		total += len(g.pending[i])
	}
	g.edges = make([]Edge, 0, total)
	for i := 0; i < n; i++ {
		g.edgeOffsets[i] = int32(len(g.edges))
		g.edges = append(g.edges, g.pending[i]...)
	}
	g.edgeOffsets[n] = int32(len(g.edges))
	g.pending = nil
	g.frozen = true
}

// Edges returns the (CSR-backed, read-only) out-edges of v. Before
// Freeze it returns v's pending build-time list instead.
func (g *Graph) Edges(v VertexID) []Edge {
	if !g.frozen {
		return g.pending[v]
	}
	return g.edges[g.edgeOffsets[v]:g.edgeOffsets[v+1]]
}

// Frozen reports whether Freeze has been called.
func (g *Graph) Frozen() bool { return g.frozen }

// NumVertices returns the total vertex count.
func (g *Graph) NumVertices() int { return len(g.Vertices) }
