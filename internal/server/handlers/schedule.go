package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gridwatch/gridwatch/internal/core/schedule"
	apperrors "github.com/gridwatch/gridwatch/internal/errors"
	"github.com/gridwatch/gridwatch/internal/output"
)

// Schedule serves GET /api/v1/schedule. ?at=RFC3339 moves the reference
// time, ?upcoming=true drops completed weekends.
func (a *API) Schedule(w http.ResponseWriter, r *http.Request) {
	all := a.schedule()
	if all == nil {
		respondWithError(w, r, apperrors.NewNotFoundError("no schedule configured"))
		return
	}

	ref := a.now()
	if at := strings.TrimSpace(r.URL.Query().Get("at")); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "at must be an RFC3339 timestamp"))
			return
		}
		ref = parsed.UTC()
	}

	weekends := all
	if upcoming, _ := strconv.ParseBool(r.URL.Query().Get("upcoming")); upcoming {
		weekends = schedule.Current(weekends, ref)
	}

	writeJSON(w, http.StatusOK, output.NewWeekendViews(ref, weekends))
}

// Calendar serves GET /api/v1/schedule/{season}/{round}/calendar.
func (a *API) Calendar(w http.ResponseWriter, r *http.Request) {
	all := a.schedule()
	if all == nil {
		respondWithError(w, r, apperrors.NewNotFoundError("no schedule configured"))
		return
	}

	season, err := strconv.Atoi(chi.URLParam(r, "season"))
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "season must be a number"))
		return
	}
	round, err := strconv.Atoi(chi.URLParam(r, "round"))
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "round must be a number"))
		return
	}

	weekend, ok := schedule.Find(all, season, round)
	if !ok {
		respondWithError(w, r, apperrors.NewNotFoundError(fmt.Sprintf("no weekend for season %d round %d", season, round)))
		return
	}
	writeJSON(w, http.StatusOK, schedule.CalendarEntries(weekend))
}
