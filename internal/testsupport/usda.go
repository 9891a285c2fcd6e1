package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Food describes one entry served by the fake FoodData Central server.
// Nutrients maps USDA nutrient names to their per-100 g amount; "Energy" is
// reported in kcal.
type Food struct {
	FDCID       int64
	Description string
	Category    string
	UPC         string
	Nutrients   map[string]float64
}

// USDAServer is an httptest server speaking the FoodData Central search and
// detail endpoints.
type USDAServer struct {
	*httptest.Server

	mu       sync.Mutex
	foods    []Food
	searches []string
	details  []int64
	status   int
}

// NewUSDAServer starts a fake FoodData Central API seeded with foods.
func NewUSDAServer(t testing.TB, foods ...Food) *USDAServer {
	t.Helper()

	s := &USDAServer{foods: append([]Food(nil), foods...)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Add registers another food.
func (s *USDAServer) Add(food Food) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foods = append(s.foods, food)
}

// FailWith makes every subsequent request return status. Zero restores
// normal behaviour.
func (s *USDAServer) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Searches returns the queries received so far.
func (s *USDAServer) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

// DetailRequests returns the FDC ids fetched so far.
func (s *USDAServer) DetailRequests() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.details...)
}

func (s *USDAServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if r.URL.Query().Get("api_key") == "" {
		http.Error(w, "missing api_key", http.StatusForbidden)
		return
	}

	switch {
	case r.URL.Path == "/foods/search":
		s.search(w, r.URL.Query().Get("query"))
	case strings.HasPrefix(r.URL.Path, "/food/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/food/"), 10, 64)
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		s.detail(w, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *USDAServer) search(w http.ResponseWriter, query string) {
	s.mu.Lock()
	s.searches = append(s.searches, query)
	needle := strings.ToLower(strings.TrimSpace(query))
	hits := make([]map[string]any, 0)
	for _, food := range s.foods {
		if food.UPC == needle || strings.Contains(strings.ToLower(food.Description), needle) {
			hits = append(hits, map[string]any{
				"fdcId":        food.FDCID,
				"description":  food.Description,
				"foodCategory": food.Category,
				"gtinUpc":      food.UPC,
				"dataType":     "Branded",
			})
		}
	}
	s.mu.Unlock()
	writeFixtureJSON(w, map[string]any{"totalHits": len(hits), "foods": hits})
}

func (s *USDAServer) detail(w http.ResponseWriter, id int64) {
	s.mu.Lock()
	s.details = append(s.details, id)
	var found *Food
	for i := range s.foods {
		if s.foods[i].FDCID == id {
			found = &s.foods[i]
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	rows := make([]map[string]any, 0, len(found.Nutrients))
	for name, amount := range found.Nutrients {
		unit := "g"
		if name == "Energy" {
			unit = "kcal"
		}
		rows = append(rows, map[string]any{
			"nutrient": map[string]any{"name": name, "unitName": unit},
			"amount":   amount,
		})
	}
	writeFixtureJSON(w, map[string]any{
		"fdcId":         found.FDCID,
		"description":   found.Description,
		"foodNutrients": rows,
	})
}

func writeFixtureJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
