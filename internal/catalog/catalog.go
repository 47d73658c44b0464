// Package catalog looks up locations and the menus attached to them.
package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
)

// ErrLocationNotFound is returned for unknown location IDs.
var ErrLocationNotFound = errors.New("location not found")

// Catalog is the read side used by the HTTP API and viewer sessions.
type Catalog interface {
	// Documents returns the menus of a location in display order.
	Documents(ctx context.Context, locationID string) ([]models.DocumentDescriptor, error)
	// Locations lists every location, ordered by ID.
	Locations(ctx context.Context) ([]models.Location, error)
}

// Static serves locations held in memory, usually from configuration.
type Static struct {
	byID  map[string]models.Location
	order []string
}

// NewStatic copies locs into a Static catalog.
func NewStatic(locs []models.Location) *Static {
	s := &Static{byID: make(map[string]models.Location, len(locs))}
	for _, loc := range locs {
		loc.Menus = append([]models.DocumentDescriptor(nil), loc.Menus...)
		if _, dup := s.byID[loc.ID]; !dup {
			s.order = append(s.order, loc.ID)
		}
		s.byID[loc.ID] = loc
	}
	sort.Strings(s.order)
	return s
}

func (s *Static) Documents(_ context.Context, locationID string) ([]models.DocumentDescriptor, error) {
	loc, ok := s.byID[locationID]
	if !ok {
		return nil, ErrLocationNotFound
	}
	return append([]models.DocumentDescriptor(nil), loc.Menus...), nil
}

func (s *Static) Locations(_ context.Context) ([]models.Location, error) {
	out := make([]models.Location, 0, len(s.order))
	for _, id := range s.order {
		loc := s.byID[id]
		loc.Menus = append([]models.DocumentDescriptor(nil), loc.Menus...)
		out = append(out, loc)
	}
	return out, nil
}
