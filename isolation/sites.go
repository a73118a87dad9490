// Package isolation gives re-executed script bodies stable, per call-site
// storage. Sites are declared once when a script is loaded and receive
// sequential ids in declaration order; a Store holds one value per site and
// knows how to forget values at bar (step) and run (full) granularity.
package isolation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateSite is returned when two declarations resolve to the same
// site name inside one script namespace.
var ErrDuplicateSite = errors.New("isolation: duplicate site")

// SiteID identifies one declared call site. Ids are dense and start at 0.
type SiteID int

// NoSite is the id handed out for a declaration that failed.
const NoSite SiteID = -1

type registry struct {
	ids   map[string]SiteID
	names []string
	err   error
}

// Sites allocates site ids for one script. Scopes created with Scope share
// the same id space but prefix names, so a library may use the same local
// names as the script that imports it.
type Sites struct {
	reg    *registry
	prefix string
}

// NewSites returns an empty allocator.
func NewSites() *Sites {
	return &Sites{reg: &registry{ids: make(map[string]SiteID)}}
}

// Scope returns an allocator whose names are qualified by name.
func (s *Sites) Scope(name string) *Sites {
	return &Sites{reg: s.reg, prefix: s.qualify(name)}
}

func (s *Sites) qualify(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Declare reserves a site for name. Declaring the same qualified name twice
// is an authoring defect: the first error is remembered and reported by Err.
func (s *Sites) Declare(name string) (SiteID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		err := errors.New("isolation: empty site name")
		s.fail(err)
		return NoSite, err
	}
	q := s.qualify(name)
	if _, ok := s.reg.ids[q]; ok {
		err := fmt.Errorf("%w: %q", ErrDuplicateSite, q)
		s.fail(err)
		return NoSite, err
	}
	id := SiteID(len(s.reg.names))
	s.reg.ids[q] = id
	s.reg.names = append(s.reg.names, q)
	return id, nil
}

func (s *Sites) fail(err error) {
	if s.reg.err == nil {
		s.reg.err = err
	}
}

// Err returns the first declaration error, if any.
func (s *Sites) Err() error { return s.reg.err }

// Len returns the number of declared sites across all scopes.
func (s *Sites) Len() int { return len(s.reg.names) }

// Name returns the qualified name of id.
func (s *Sites) Name(id SiteID) string {
	if id < 0 || int(id) >= len(s.reg.names) {
		return ""
	}
	return s.reg.names[id]
}

// Lookup returns the id previously declared for the qualified name.
func (s *Sites) Lookup(name string) (SiteID, bool) {
	id, ok := s.reg.ids[s.qualify(name)]
	return id, ok
}
