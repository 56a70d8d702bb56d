package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/gridwatch/gridwatch/internal/core/openf1"
	apperrors "github.com/gridwatch/gridwatch/internal/errors"
)

// raceQuery is the query string accepted by the /races routes.
type raceQuery struct {
	Date     string `validate:"required,datetime=2006-01-02"`
	Location string `validate:"max=128"`
	Country  string `validate:"max=128"`
	Season   string `validate:"omitempty,numeric,len=4"`
}

func newValidator() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(raceQueryStructValidation, raceQuery{})
	return v
}

// raceQueryStructValidation requires at least one location hint.
func raceQueryStructValidation(sl validatorv10.StructLevel) {
	q := sl.Current().Interface().(raceQuery)
	if strings.TrimSpace(q.Location) == "" && strings.TrimSpace(q.Country) == "" {
		sl.ReportError(q.Location, "location", "Location", "location_or_country", "")
	}
}

func validationFields(err error) map[string]string {
	fields := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
		return fields
	}
	fields["query"] = err.Error()
	return fields
}

// parseRaceLookup validates the query and builds the lookup. The season
// defaults to the year of the race date.
func (a *API) parseRaceLookup(r *http.Request) (openf1.RaceLookup, error) {
	values := r.URL.Query()
	q := raceQuery{
		Date:     strings.TrimSpace(values.Get("date")),
		Location: strings.TrimSpace(values.Get("location")),
		Country:  strings.TrimSpace(values.Get("country")),
		Season:   strings.TrimSpace(values.Get("season")),
	}

	if err := a.validate.Struct(q); err != nil {
		return openf1.RaceLookup{}, apperrors.NewValidationError("invalid race query").
			WithDetails(map[string]interface{}{"fields": validationFields(err)})
	}

	date, err := time.Parse(time.DateOnly, q.Date)
	if err != nil {
		return openf1.RaceLookup{}, apperrors.WrapInvalidInput(r.Context(), err, "date must be YYYY-MM-DD")
	}
	season := q.Season
	if season == "" {
		season = strconv.Itoa(date.Year())
	}

	return openf1.RaceLookup{
		Date:     date,
		Location: q.Location,
		Country:  q.Country,
		Season:   season,
	}, nil
}

// Podium serves GET /api/v1/races/podium. The body is null until results
// are published.
func (a *API) Podium(w http.ResponseWriter, r *http.Request) {
	lookup, err := a.parseRaceLookup(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.upstream.TopFinishers(r.Context(), lookup))
}

// Remaining serves GET /api/v1/races/remaining.
func (a *API) Remaining(w http.ResponseWriter, r *http.Request) {
	lookup, err := a.parseRaceLookup(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.upstream.RemainingFinishers(r.Context(), lookup))
}

// Results serves GET /api/v1/races/results and surfaces upstream failures.
func (a *API) Results(w http.ResponseWriter, r *http.Request) {
	lookup, err := a.parseRaceLookup(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	finishers, err := a.upstream.RaceResults(r.Context(), lookup)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, finishers)
}
