// Package indexspace implements the vertex addressing scheme shared by the
// graph builder and the query engine: a single dense index space packing
// five disjoint vertex kinds (stop area, stop point, route point,
// time-arrival, time-departure) laid out as a concatenation of blocks.
package indexspace

import "fmt"

// Kind is the closed set of vertex kinds the time-expanded graph knows
// about.
type Kind uint8

const (
	SA Kind = iota
	SP
	RP
	TA
	TD
)

func (k Kind) String() string {
	switch k {
	case SA:
		return "SA"
	case SP:
		return "SP"
	case RP:
		return "RP"
	case TA:
		return "TA"
	case TD:
		return "TD"
	default:
		return "?"
	}
}

// Sizes holds the per-kind counts the space was built from. |ST| is the
// stop-time count; TA and TD blocks each have length |ST|.
type Sizes struct {
	SA int
	SP int
	RP int
	ST int
}

// Space is a pure function of Sizes: it never mutates and owns no data
// beyond the four block boundaries.
type Space struct {
	sizes Sizes
	// cumulative offsets of each block's start
	offSA, offSP, offRP, offTA, offTD int
	total                             int
}

// New builds the index space for the given dataset sizes. Block order is
// fixed: SA, SP, RP, TA, TD.
func New(sizes Sizes) *Space {
	s := &Space{sizes: sizes}
	s.offSA = 0
	s.offSP = s.offSA + sizes.SA
	s.offRP = s.offSP + sizes.SP
	s.offTA = s.offRP + sizes.RP
	s.offTD = s.offTA + sizes.ST
	s.total = s.offTD + sizes.ST
	return s
}

// Total returns |SA|+|SP|+|RP|+2*|ST|, the total vertex count.
func (s *Space) Total() int { return s.total }

func (s *Space) Sizes() Sizes { return s.sizes }

// VidOf maps (kind, local) to the dense index. Constant time.
func (s *Space) VidOf(kind Kind, local int) int {
	switch kind {
	case SA:
		return s.offSA + local
	case SP:
		return s.offSP + local
	case RP:
		return s.offRP + local
	case TA:
		return s.offTA + local
	case TD:
		return s.offTD + local
	default:
		panic(fmt.Sprintf("indexspace: unknown kind %d", kind))
	}
}

// LocalOf maps a dense index back to (kind, local) by range comparison
// against the four block boundaries.
func (s *Space) LocalOf(idx int) (Kind, int) {
	switch {
	case idx < s.offSP:
		return SA, idx - s.offSA
	case idx < s.offRP:
		return SP, idx - s.offSP
	case idx < s.offTA:
		return RP, idx - s.offRP
	case idx < s.offTD:
		return TA, idx - s.offTA
	case idx < s.total:
		return TD, idx - s.offTD
	default:
		panic(fmt.Sprintf("indexspace: index %d out of range [0,%d)", idx, s.total))
	}
}

// KindOf is LocalOf without the local-id, for callers that only need the
// discriminator.
func (s *Space) KindOf(idx int) Kind {
	k, _ := s.LocalOf(idx)
	return k
}

// Lookup resolves the indirections StopAreaOf needs beyond SA and SP: the
// stop area owning a stop point, the stop point owning a route point, and
// the route point owning a stop time. The graph builder supplies these
// from the dataset; indexspace itself holds no dataset state.
type Lookup interface {
	StopAreaOfStopPoint(spLocal int) int
	StopPointOfRoutePoint(rpLocal int) int
	RoutePointOfStopTime(stLocal int) int
}

// StopAreaOf resolves the stop-area local id reachable from any vertex:
// identity for SA, direct for SP, indirect for RP (via its stop point),
// and doubly indirect for TA/TD (via their stop time's route point).
func (s *Space) StopAreaOf(idx int, lookup Lookup) int {
	kind, local := s.LocalOf(idx)
	switch kind {
	case SA:
		return local
	case SP:
		return lookup.StopAreaOfStopPoint(local)
	case RP:
		return lookup.StopAreaOfStopPoint(lookup.StopPointOfRoutePoint(local))
	case TA, TD:
		rp := lookup.RoutePointOfStopTime(local)
		return lookup.StopAreaOfStopPoint(lookup.StopPointOfRoutePoint(rp))
	default:
		panic(fmt.Sprintf("indexspace: unknown kind %v", kind))
	}
}
