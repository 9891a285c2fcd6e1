package daemon

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
	"pantrypal/internal/services/nutrition"
)

// NutritionService answers interactive macro queries.
type NutritionService interface {
	LookupScaled(ctx context.Context, name string, quantity float64, unit string) (pantry.MacroProfile, error)
	Suggest(ctx context.Context, query string, category pantry.Category) ([]nutrition.Suggestion, error)
	LookupUPC(ctx context.Context, upc string) (nutrition.Product, error)
}

func (s *apiServer) nutritionReady(w http.ResponseWriter) bool {
	if s.daemon.nutrition == nil {
		s.writeError(w, http.StatusServiceUnavailable, "nutrition lookup unavailable")
		return false
	}
	return true
}

func (s *apiServer) handleTotalMacros(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	total, err := s.daemon.records.TotalMacros(r.Context(), owner(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, total)
}

// handleItemMacros serves GET /api/macros/item?item_name=&quantity=&unit=.
func (s *apiServer) handleItemMacros(w http.ResponseWriter, r *http.Request) {
	if !s.nutritionReady(w) {
		return
	}
	query := r.URL.Query()
	name := strings.TrimSpace(query.Get("item_name"))
	if name == "" {
		s.writeServiceError(w, r, fmt.Errorf("%w: item_name is required", services.ErrValidation))
		return
	}
	quantity := 100.0
	if raw := strings.TrimSpace(query.Get("quantity")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeServiceError(w, r, fmt.Errorf("%w: invalid quantity %q", services.ErrValidation, raw))
			return
		}
		quantity = parsed
	}
	unit := strings.TrimSpace(query.Get("unit"))
	if unit == "" {
		unit = "g"
	}
	profile, err := s.daemon.nutrition.LookupScaled(r.Context(), name, quantity, unit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile.Round(2))
}

func (s *apiServer) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	if !s.nutritionReady(w) {
		return
	}
	query := r.URL.Query()
	var category pantry.Category
	if raw := strings.TrimSpace(query.Get("category")); raw != "" {
		parsed, err := pantry.ParseCategory(raw)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		category = parsed
	}
	suggestions, err := s.daemon.nutrition.Suggest(r.Context(), query.Get("query"), category)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if suggestions == nil {
		suggestions = []nutrition.Suggestion{}
	}
	s.writeJSON(w, http.StatusOK, suggestions)
}

func (s *apiServer) handleUPC(w http.ResponseWriter, r *http.Request) {
	if !s.nutritionReady(w) {
		return
	}
	product, err := s.daemon.nutrition.LookupUPC(r.Context(), r.PathValue("upc"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}
