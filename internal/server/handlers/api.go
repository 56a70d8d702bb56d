package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/gridwatch/gridwatch/internal/core"
	"github.com/gridwatch/gridwatch/internal/core/openf1"
	"github.com/gridwatch/gridwatch/internal/core/schedule"
)

// Upstream is the part of the OpenF1 client the API handlers call.
type Upstream interface {
	Query(ctx context.Context, endpoint string, params openf1.Params) ([]openf1.Record, error)
	TopFinishers(ctx context.Context, lookup openf1.RaceLookup) []core.Finisher
	RemainingFinishers(ctx context.Context, lookup openf1.RaceLookup) []core.Finisher
	RaceResults(ctx context.Context, lookup openf1.RaceLookup) ([]core.Finisher, error)
	Stats() core.ClientStats
	Purge() int
}

// API serves the /api/v1 routes.
type API struct {
	upstream Upstream

	mu       sync.RWMutex
	weekends []schedule.Weekend

	now      func() time.Time
	validate *validatorv10.Validate
}

// NewAPI builds the handler set. weekends may be nil when no schedule is
// configured; the schedule routes then answer 404.
func NewAPI(upstream Upstream, weekends []schedule.Weekend) *API {
	return &API{
		upstream: upstream,
		weekends: weekends,
		now:      func() time.Time { return time.Now().UTC() },
		validate: newValidator(),
	}
}

// WithClock replaces the reference clock used for schedule classification.
func (a *API) WithClock(now func() time.Time) *API {
	if now != nil {
		a.now = now
	}
	return a
}

// SetSchedule swaps the calendar served by the schedule routes.
func (a *API) SetSchedule(weekends []schedule.Weekend) {
	a.mu.Lock()
	a.weekends = weekends
	a.mu.Unlock()
}

func (a *API) schedule() []schedule.Weekend {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.weekends
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
