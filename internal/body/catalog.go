package body

import (
	"fmt"
	"math"
	"sort"
)

const (
	// MaxEccentricity is the largest eccentricity the propagator accepts.
	MaxEccentricity = 0.99
	// MinRadiusKm replaces non-positive radii.
	MinRadiusKm = 1.0
)

// Catalog is a validated, immutable tree of body specs rooted at the
// reference body, with a resolve order computed once at construction.
type Catalog struct {
	specs    map[string]*Spec
	refID    string
	order    []string
	depth    map[string]int
	children map[string][]string
	excluded map[string]error
}

// NewCatalog validates specs and builds the hierarchy. A missing, rejected or
// ambiguous reference body is fatal; every other structural problem
// excludes the affected body and its descendants and is reported.
func NewCatalog(specs []Spec, reporter Reporter) (*Catalog, error) {
	if reporter == nil {
		reporter = Discard
	}

	var refs []string
	for i := range specs {
		if specs[i].IsReference {
			refs = append(refs, specs[i].ID)
		}
	}
	switch {
	case len(refs) == 0:
		return nil, ErrNoReference
	case len(refs) > 1:
		return nil, fmt.Errorf("%w: %v", ErrMultipleReferences, refs)
	}

	c := &Catalog{
		specs:    make(map[string]*Spec, len(specs)),
		refID:    refs[0],
		depth:    make(map[string]int, len(specs)),
		children: make(map[string][]string),
		excluded: make(map[string]error),
	}

	// Pass 1: per-spec checks and clamps.
	var inputOrder []string
	for i := range specs {
		s := specs[i]
		if s.ID == "" {
			reporter.Report(Issue{Severity: SeverityError, Err: fmt.Errorf("%w: empty id", ErrInvalidOrbitSpec)})
			continue
		}
		if _, dup := c.specs[s.ID]; dup {
			reporter.Report(Issue{Severity: SeverityError, BodyID: s.ID, Err: ErrDuplicateID})
			continue
		}
		if _, dup := c.excluded[s.ID]; dup {
			reporter.Report(Issue{Severity: SeverityError, BodyID: s.ID, Err: ErrDuplicateID})
			continue
		}
		if s.IsReference {
			if s.PrimaryID != "" {
				reporter.Report(Issue{Severity: SeverityWarning, BodyID: s.ID,
					Err: fmt.Errorf("%w: reference body primary %q ignored", ErrClamped, s.PrimaryID)})
				s.PrimaryID = ""
			}
		} else if err := checkOrbit(s.Orbit); err != nil {
			c.excluded[s.ID] = err
			reporter.Report(Issue{Severity: SeverityError, BodyID: s.ID, Err: err})
			continue
		}
		clampSpec(&s, reporter)
		c.specs[s.ID] = &s
		inputOrder = append(inputOrder, s.ID)
	}

	if ref, ok := c.specs[c.refID]; !ok || !ref.IsReference {
		return nil, fmt.Errorf("%w: reference %q was rejected", ErrNoReference, c.refID)
	}

	// Pass 2: walk every primary chain to the reference.
	bad := c.resolveChains(inputOrder)
	for _, id := range inputOrder {
		if err, ok := bad[id]; ok {
			delete(c.specs, id)
			c.excluded[id] = err
			reporter.Report(Issue{Severity: SeverityError, BodyID: id, Err: err})
		}
	}

	// Pass 3: depth, children and resolve order.
	for _, id := range inputOrder {
		if _, ok := c.specs[id]; !ok {
			continue
		}
		c.depth[id] = c.depthOf(id)
		if id != c.refID {
			p := c.specs[id].PrimaryID
			c.children[p] = append(c.children[p], id)
		}
	}
	for p := range c.children {
		c.sortIDs(c.children[p])
	}
	for id := range c.specs {
		if id != c.refID {
			c.order = append(c.order, id)
		}
	}
	c.sortIDs(c.order)
	c.order = append([]string{c.refID}, c.order...)

	return c, nil
}

func checkOrbit(o Orbit) error {
	if !(o.PeriodSeconds > 0) || math.IsInf(o.PeriodSeconds, 0) {
		return fmt.Errorf("%w: period %v must be positive", ErrInvalidOrbitSpec, o.PeriodSeconds)
	}
	if !(o.SemiMajorAxisKm > 0) || math.IsInf(o.SemiMajorAxisKm, 0) {
		return fmt.Errorf("%w: semi-major axis %v must be positive", ErrInvalidOrbitSpec, o.SemiMajorAxisKm)
	}
	return nil
}

func clampSpec(s *Spec, reporter Reporter) {
	warn := func(format string, args ...interface{}) {
		reporter.Report(Issue{
			Severity: SeverityWarning,
			BodyID:   s.ID,
			Err:      fmt.Errorf("%w: "+format, append([]interface{}{ErrClamped}, args...)...),
		})
	}

	e := s.Orbit.Eccentricity
	switch {
	case math.IsNaN(e):
		warn("eccentricity NaN -> 0")
		s.Orbit.Eccentricity = 0
	case e < 0:
		warn("eccentricity %g -> 0", e)
		s.Orbit.Eccentricity = 0
	case e > MaxEccentricity:
		warn("eccentricity %g -> %g", e, MaxEccentricity)
		s.Orbit.Eccentricity = MaxEccentricity
	}

	if r := s.Physical.RadiusKm; !(r > 0) || math.IsInf(r, 0) {
		warn("radius %g km -> %g km", r, MinRadiusKm)
		s.Physical.RadiusKm = MinRadiusKm
	}

	angles := []struct {
		name string
		v    *float64
	}{
		{"inclination", &s.Orbit.Inclination},
		{"ascending node", &s.Orbit.AscendingNode},
		{"periapsis argument", &s.Orbit.PeriapsisArg},
		{"mean anomaly", &s.Orbit.MeanAnomalyAtEpoch},
		{"axial tilt", &s.Physical.AxialTiltDeg},
		{"rotation period", &s.Physical.RotationPeriodHours},
	}
	for _, a := range angles {
		if math.IsNaN(*a.v) || math.IsInf(*a.v, 0) {
			warn("%s %v -> 0", a.name, *a.v)
			*a.v = 0
		}
	}
}

// resolveChains returns the ids whose primary chain does not reach the
// reference, with the reason.
func (c *Catalog) resolveChains(ids []string) map[string]error {
	good := map[string]bool{c.refID: true}
	bad := make(map[string]error)

	orphan := func(path []string, cause string) {
		for _, id := range path {
			bad[id] = fmt.Errorf("%w: ancestor %q excluded", ErrMissingPrimary, cause)
		}
	}

	for _, id := range ids {
		if good[id] || bad[id] != nil {
			continue
		}
		var path []string
		onPath := make(map[string]int)
		cur := id
		for {
			if good[cur] {
				for _, p := range path {
					good[p] = true
				}
				break
			}
			if bad[cur] != nil {
				orphan(path, cur)
				break
			}
			if idx, seen := onPath[cur]; seen {
				for _, p := range path[idx:] {
					bad[p] = fmt.Errorf("%w: %v", ErrCyclicHierarchy, path[idx:])
				}
				orphan(path[:idx], cur)
				break
			}
			spec, exists := c.specs[cur]
			if !exists {
				last := path[len(path)-1]
				bad[last] = fmt.Errorf("%w: primary %q not found", ErrMissingPrimary, cur)
				orphan(path[:len(path)-1], last)
				break
			}
			onPath[cur] = len(path)
			path = append(path, cur)
			if spec.PrimaryID == "" {
				bad[cur] = fmt.Errorf("%w: no primary set", ErrMissingPrimary)
				orphan(path[:len(path)-1], cur)
				break
			}
			cur = spec.PrimaryID
		}
	}
	return bad
}

func (c *Catalog) depthOf(id string) int {
	d := 0
	for id != c.refID {
		id = c.specs[id].PrimaryID
		d++
	}
	return d
}

func (c *Catalog) sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if c.depth[a] != c.depth[b] {
			return c.depth[a] < c.depth[b]
		}
		oa, ob := c.specs[a].OrderFromPrimary, c.specs[b].OrderFromPrimary
		if oa != ob {
			return oa < ob
		}
		return a < b
	})
}

// Reference returns the reference body.
func (c *Catalog) Reference() *Spec { return c.specs[c.refID] }

// Get returns the spec for id. The returned spec must not be modified.
func (c *Catalog) Get(id string) (*Spec, bool) {
	s, ok := c.specs[id]
	return s, ok
}

// Order returns ids in resolve order: reference first, every primary
// before its satellites.
func (c *Catalog) Order() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Children returns the direct satellites of id in resolve order.
func (c *Catalog) Children(id string) []string {
	out := make([]string, len(c.children[id]))
	copy(out, c.children[id])
	return out
}

// Depth returns the number of primaries between id and the reference.
func (c *Catalog) Depth(id string) int { return c.depth[id] }

// OrbitsReference reports whether id's primary is the reference body.
func (c *Catalog) OrbitsReference(id string) bool {
	s, ok := c.specs[id]
	return ok && !s.IsReference && s.PrimaryID == c.refID
}

// Len returns the number of accepted bodies.
func (c *Catalog) Len() int { return len(c.specs) }

// IDs returns accepted ids sorted alphabetically.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.specs))
	for id := range c.specs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Excluded returns the bodies rejected at construction with their reason.
func (c *Catalog) Excluded() map[string]error {
	out := make(map[string]error, len(c.excluded))
	for k, v := range c.excluded {
		out[k] = v
	}
	return out
}
