package daemon

import (
	"net/http"

	"pantrypal/internal/api"
	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
)

// recordsReady writes 503 and returns false when records are not wired.
func (s *apiServer) recordsReady(w http.ResponseWriter) bool {
	if s.daemon.records == nil {
		s.writeError(w, http.StatusServiceUnavailable, "record store unavailable")
		return false
	}
	return true
}

func owner(r *http.Request) string {
	id, _ := services.OwnerIDFromContext(r.Context())
	return id
}

func (s *apiServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	items, err := s.daemon.records.ListItems(r.Context(), owner(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []pantry.PantryItem{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *apiServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	var input pantry.PantryItem
	if err := decodeBody(r, &input); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	item, err := s.daemon.records.CreateItem(r.Context(), owner(r), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *apiServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	item, err := s.daemon.records.GetItem(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *apiServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	var input pantry.PantryItem
	if err := decodeBody(r, &input); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	item, err := s.daemon.records.UpdateItem(r.Context(), owner(r), r.PathValue("id"), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *apiServer) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	if err := s.daemon.records.DeleteItem(r.Context(), owner(r), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleHydrateItem(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	n, err := s.daemon.records.RehydrateItem(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.HydrateResponse{Enqueued: n})
}

func (s *apiServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	summary, err := s.daemon.records.Summary(r.Context(), owner(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *apiServer) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	recipes, err := s.daemon.records.ListRecipes(r.Context(), owner(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if recipes == nil {
		recipes = []pantry.Recipe{}
	}
	s.writeJSON(w, http.StatusOK, recipes)
}

func (s *apiServer) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	var input pantry.Recipe
	if err := decodeBody(r, &input); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	recipe, err := s.daemon.records.CreateRecipe(r.Context(), owner(r), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, recipe)
}

func (s *apiServer) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	recipe, err := s.daemon.records.GetRecipe(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recipe)
}

func (s *apiServer) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	var input pantry.Recipe
	if err := decodeBody(r, &input); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	recipe, err := s.daemon.records.UpdateRecipe(r.Context(), owner(r), r.PathValue("id"), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recipe)
}

func (s *apiServer) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	if err := s.daemon.records.DeleteRecipe(r.Context(), owner(r), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleHydrateRecipe(w http.ResponseWriter, r *http.Request) {
	if !s.recordsReady(w) {
		return
	}
	n, err := s.daemon.records.RehydrateRecipe(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.HydrateResponse{Enqueued: n})
}
