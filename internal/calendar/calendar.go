// Package calendar implements the validity-pattern registry: an
// append-only, interned arena of 366-bit day masks, plus the
// shift-by-one-day operator used to re-label in-vehicle edges that cross
// midnight.
package calendar

const Days = 366

// Mask is a 366-day bitmask stating on which calendar days a vehicle
// journey runs. It is a fixed-size value type so two masks are
// byte-equal exactly when the pattern is the same.
type Mask [Days]bool

// Index identifies an interned Mask within a Registry.
type Index int32

// Registry is the validity-pattern arena. It is append-only: readers
// observing an Index are guaranteed the corresponding Mask is fully
// initialized, since Intern never mutates an existing entry.
type Registry struct {
	masks []Mask
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Intern returns the existing index if some entry is byte-equal to m;
// otherwise it appends m and returns the new index. Calling Intern twice
// with an equal mask always yields the same index.
func (r *Registry) Intern(m Mask) Index {
	for i, existing := range r.masks {
		if existing == m {
			return Index(i)
		}
	}
	r.masks = append(r.masks, m)
	return Index(len(r.masks) - 1)
}

// Get returns the mask stored at idx.
func (r *Registry) Get(idx Index) Mask {
	return r.masks[idx]
}

// Len returns the number of distinct masks interned so far.
func (r *Registry) Len() int {
	return len(r.masks)
}

// ShiftByOneDay produces a new mask where out[0] = vp[365] and
// out[i+1] = vp[i] for i in [0,364]. It is used to re-label a leg that
// departs today and arrives tomorrow: the pattern must be evaluated one
// day earlier from the arrival side. Apply at most once per crossing;
// double-shifting produces the wrong calendar.
func ShiftByOneDay(vp Mask) Mask {
	var out Mask
	out[0] = vp[Days-1]
	for i := 0; i < Days-1; i++ {
		out[i+1] = vp[i]
	}
	return out
}

// CrossesMidnight is the sole arbiter of past-midnight detection: a leg
// departing at seconds-of-day s1 and arriving at s2 crosses midnight iff
// s2 modularly precedes s1. Any other formulation (including variants
// that compare raw, non-modular seconds) is not equivalent and must not
// be substituted.
func CrossesMidnight(s1, s2 int) bool {
	return (s1 % 86400) > (s2 % 86400)
}
