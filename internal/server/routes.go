package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/catalog"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/resolver"
)

// locationSummary is one entry of GET /api/locations.
type locationSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MenuCount int    `json:"menuCount"`
}

// RegisterRoutes mounts the location API under /api/locations.
func RegisterRoutes(r chi.Router, cat catalog.Catalog, res *resolver.Resolver) {
	r.Route("/api/locations", func(r chi.Router) {
		r.Get("/", handleListLocations(cat, res))
		r.Get("/{id}/menus", handleListMenus(cat, res))
	})
}

func handleListLocations(cat catalog.Catalog, res *resolver.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locs, err := cat.Locations(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]locationSummary, 0, len(locs))
		for _, loc := range locs {
			out = append(out, locationSummary{
				ID:        loc.ID,
				Name:      loc.Name,
				MenuCount: len(res.Tabs(loc.Menus)),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleListMenus(cat catalog.Catalog, res *resolver.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		docs, err := cat.Documents(r.Context(), id)
		if errors.Is(err, catalog.ErrLocationNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		tabs := res.Tabs(docs)
		out := make([]models.MenuTab, 0, len(tabs))
		for i, tab := range tabs {
			out = append(out, models.MenuTab{
				Index:        i,
				Name:         tab.Name,
				CanonicalURL: tab.Resolved.CanonicalURL,
				RelayURL:     tab.Resolved.RelayURL,
				PageCount:    tab.Descriptor.PageCount,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
