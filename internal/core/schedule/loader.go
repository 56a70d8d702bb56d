package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gridwatch/gridwatch/internal/core"
)

// tableFile is the static YAML schedule format:
//
//	season: 2024
//	weekends:
//	  - round: 1
//	    name: Bahrain Grand Prix
//	    circuit: {id: bahrain, name: Bahrain International Circuit, locality: Sakhir, country: Bahrain}
//	    sessions:
//	      fp1: 2024-02-29T11:30:00Z
//	      race: 2024-03-02T15:00:00Z
type tableFile struct {
	Season   int            `yaml:"season"`
	Weekends []tableWeekend `yaml:"weekends"`
}

type tableWeekend struct {
	Season   int               `yaml:"season"`
	Round    int               `yaml:"round"`
	Name     string            `yaml:"name"`
	Circuit  Circuit           `yaml:"circuit"`
	Sessions map[string]string `yaml:"sessions"`
}

// ergastResponse is the subset of an Ergast/Jolpica races response used
// here.
type ergastResponse struct {
	MRData struct {
		RaceTable struct {
			Season string       `json:"season"`
			Races  []ergastRace `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

type ergastSession struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type ergastRace struct {
	Season   string `json:"season"`
	Round    string `json:"round"`
	RaceName string `json:"raceName"`
	Circuit  struct {
		CircuitID   string `json:"circuitId"`
		CircuitName string `json:"circuitName"`
		Location    struct {
			Locality string `json:"locality"`
			Country  string `json:"country"`
		} `json:"Location"`
	} `json:"Circuit"`
	Date             string         `json:"date"`
	Time             string         `json:"time"`
	FirstPractice    *ergastSession `json:"FirstPractice"`
	SecondPractice   *ergastSession `json:"SecondPractice"`
	ThirdPractice    *ergastSession `json:"ThirdPractice"`
	Qualifying       *ergastSession `json:"Qualifying"`
	SprintQualifying *ergastSession `json:"SprintQualifying"`
	SprintShootout   *ergastSession `json:"SprintShootout"`
	Sprint           *ergastSession `json:"Sprint"`
}

// LoadFile reads a schedule from a .yaml/.yml table or an Ergast-shaped
// .json response.
func LoadFile(path string) ([]Weekend, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- schedule path is operator-provided
	if err != nil {
		return nil, fmt.Errorf("read schedule %s: %w", path, err)
	}
	return Load(path, data)
}

// Load parses schedule data; the format is chosen from the source's
// extension, falling back to sniffing for a JSON object.
func Load(source string, data []byte) ([]Weekend, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("schedule %s is empty", source)
	}

	var (
		weekends []Weekend
		err      error
	)
	switch strings.ToLower(filepath.Ext(source)) {
	case ".json":
		weekends, err = parseErgast(trimmed)
	case ".yaml", ".yml":
		weekends, err = parseTable(trimmed)
	default:
		if trimmed[0] == '{' {
			weekends, err = parseErgast(trimmed)
		} else {
			weekends, err = parseTable(trimmed)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parse schedule %s: %w", source, err)
	}

	sort.SliceStable(weekends, func(i, j int) bool {
		if weekends[i].Season != weekends[j].Season {
			return weekends[i].Season < weekends[j].Season
		}
		return weekends[i].Round < weekends[j].Round
	})
	return weekends, nil
}

func parseTable(data []byte) ([]Weekend, error) {
	var table tableFile
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	weekends := make([]Weekend, 0, len(table.Weekends))
	for _, entry := range table.Weekends {
		season := entry.Season
		if season == 0 {
			season = table.Season
		}
		weekend := Weekend{
			Season:  season,
			Round:   entry.Round,
			Name:    strings.TrimSpace(entry.Name),
			Circuit: entry.Circuit,
		}
		for key, value := range entry.Sessions {
			kind, err := core.ParseEventKind(key)
			if err != nil {
				return nil, fmt.Errorf("round %d: %w", entry.Round, err)
			}
			if strings.TrimSpace(value) == "" {
				continue
			}
			start, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("round %d %s: %w", entry.Round, key, err)
			}
			weekend.Events = append(weekend.Events, core.RaceWeekendEvent{Kind: kind, Start: start.UTC()})
		}
		weekend.Events = weekend.sortedEvents()
		weekends = append(weekends, weekend)
	}
	return weekends, nil
}

func parseErgast(data []byte) ([]Weekend, error) {
	var resp ergastResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	weekends := make([]Weekend, 0, len(resp.MRData.RaceTable.Races))
	for _, race := range resp.MRData.RaceTable.Races {
		seasonText := race.Season
		if seasonText == "" {
			seasonText = resp.MRData.RaceTable.Season
		}
		season, err := strconv.Atoi(strings.TrimSpace(seasonText))
		if err != nil {
			return nil, fmt.Errorf("race %q: invalid season %q", race.RaceName, seasonText)
		}
		round, err := strconv.Atoi(strings.TrimSpace(race.Round))
		if err != nil {
			return nil, fmt.Errorf("race %q: invalid round %q", race.RaceName, race.Round)
		}

		weekend := Weekend{
			Season: season,
			Round:  round,
			Name:   strings.TrimSpace(race.RaceName),
			Circuit: Circuit{
				ID:       race.Circuit.CircuitID,
				Name:     race.Circuit.CircuitName,
				Locality: race.Circuit.Location.Locality,
				Country:  race.Circuit.Location.Country,
			},
		}

		sprintQualifying := race.SprintQualifying
		if sprintQualifying == nil {
			sprintQualifying = race.SprintShootout
		}
		sessions := []struct {
			kind    core.EventKind
			session *ergastSession
		}{
			{core.EventKindFP1, race.FirstPractice},
			{core.EventKindFP2, race.SecondPractice},
			{core.EventKindFP3, race.ThirdPractice},
			{core.EventKindSprintQualifying, sprintQualifying},
			{core.EventKindSprint, race.Sprint},
			{core.EventKindQualifying, race.Qualifying},
			{core.EventKindRace, &ergastSession{Date: race.Date, Time: race.Time}},
		}
		for _, s := range sessions {
			if s.session == nil || strings.TrimSpace(s.session.Date) == "" {
				continue
			}
			start, err := ergastStart(s.session.Date, s.session.Time)
			if err != nil {
				return nil, fmt.Errorf("round %d %s: %w", round, s.kind, err)
			}
			weekend.Events = append(weekend.Events, core.RaceWeekendEvent{Kind: s.kind, Start: start})
		}
		weekend.Events = weekend.sortedEvents()
		weekends = append(weekends, weekend)
	}
	return weekends, nil
}

// ergastStart joins a YYYY-MM-DD date with an optional HH:MM:SSZ time. A
// missing time means midnight UTC.
func ergastStart(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = "00:00:00Z"
	}
	if !strings.HasSuffix(clock, "Z") && !strings.ContainsAny(clock, "+-") {
		clock += "Z"
	}
	start, err := time.Parse(time.RFC3339, date+"T"+clock)
	if err != nil {
		return time.Time{}, err
	}
	return start.UTC(), nil
}
