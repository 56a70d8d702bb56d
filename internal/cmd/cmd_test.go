package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/gridwatch/internal/config"
	"github.com/gridwatch/gridwatch/internal/core/openf1"
	errwrap "github.com/gridwatch/gridwatch/internal/errors"
)

const testSchedule = `
season: 2024
weekends:
  - round: 1
    name: Bahrain Grand Prix
    circuit: {id: bahrain, name: Bahrain International Circuit, locality: Sakhir, country: Bahrain}
    sessions:
      qualifying: "2024-03-01T16:00:00Z"
      race: "2024-03-02T15:00:00Z"
  - round: 2
    name: Saudi Arabian Grand Prix
    circuit: {id: jeddah, name: Jeddah Corniche Circuit, locality: Jeddah, country: Saudi Arabia}
    sessions:
      race: "2024-03-09T17:00:00Z"
`

// useViper installs a fresh global viper with defaults and the given
// overrides for the duration of the test.
func useViper(t *testing.T, overrides map[string]any) {
	t.Helper()
	viper.Reset()
	config.SetDefaults(viper.GetViper())
	for key, value := range overrides {
		viper.Set(key, value)
	}
	t.Cleanup(viper.Reset)
}

// newTestCommand builds a detached command carrying the flags of the real
// one so run functions can be called without touching rootCmd.
func newTestCommand(t *testing.T, register func(c *cobra.Command)) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	if register != nil {
		register(c)
	}
	out := &bytes.Buffer{}
	c.SetOut(out)
	c.SetContext(context.Background())
	return c, out
}

func writeSchedule(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calendar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSchedule), 0o600))
	return path
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"year=2024", "session_name=Race", "meeting_key=", "year=2023"})
	require.NoError(t, err)
	assert.Equal(t, openf1.Params{
		"year":         int64(2023),
		"session_name": "Race",
		"meeting_key":  "",
	}, params)

	for _, bad := range []string{"noequals", "=2024", "  =x"} {
		_, err := parseParams([]string{bad})
		require.Error(t, err, bad)
		var malformed *openf1.MalformedInputError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "param", malformed.Field)
	}
}

func TestRaceLookupFromFlags(t *testing.T) {
	register := func(c *cobra.Command) {
		c.Flags().String("date", "", "")
		c.Flags().String("location", "", "")
		c.Flags().String("country", "", "")
		c.Flags().String("season", "", "")
	}

	tests := []struct {
		name    string
		flags   map[string]string
		want    openf1.RaceLookup
		wantErr bool
	}{
		{
			name:  "season defaults to date year",
			flags: map[string]string{"date": "2024-03-02", "location": " Sakhir "},
			want: openf1.RaceLookup{
				Date:     time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
				Location: "Sakhir",
				Season:   "2024",
			},
		},
		{
			name:  "explicit season and country",
			flags: map[string]string{"date": "2024-03-09", "country": "Saudi Arabia", "season": "2024"},
			want: openf1.RaceLookup{
				Date:    time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
				Country: "Saudi Arabia",
				Season:  "2024",
			},
		},
		{name: "missing date", flags: map[string]string{"location": "Sakhir"}, wantErr: true},
		{name: "bad date", flags: map[string]string{"date": "02/03/2024", "location": "Sakhir"}, wantErr: true},
		{name: "no location hint", flags: map[string]string{"date": "2024-03-02"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCommand(t, register)
			for k, v := range tt.flags {
				require.NoError(t, c.Flags().Set(k, v))
			}
			got, err := raceLookupFromFlags(c)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errwrap.CodeInvalidInput, errwrap.EnsureEnvelope(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRaceTitle(t *testing.T) {
	date := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Podium: Jeddah 2024-03-09", raceTitle("Podium", openf1.RaceLookup{Date: date, Location: "Jeddah"}))
	assert.Equal(t, "Results: Saudi Arabia 2024-03-09", raceTitle("Results", openf1.RaceLookup{Date: date, Country: "Saudi Arabia"}))
}

func TestExitCodeFor(t *testing.T) {
	c, _ := newTestCommand(t, nil)

	assert.Equal(t, exitConfigInvalid, exitCodeFor(wrapConfigError(c, errors.New("bad port"))))
	assert.Equal(t, exitFileNotFound, exitCodeFor(fmt.Errorf("load: %w", os.ErrNotExist)))
	assert.Equal(t, exitUpstream, exitCodeFor(errwrap.NewRateLimitedError("slow down")))
	assert.Equal(t, exitUpstream, exitCodeFor(errwrap.NewExternalServiceError("upstream 500")))
	assert.Equal(t, exitConfigInvalid, exitCodeFor(errwrap.NewConfigInvalidError("missing")))
	assert.Equal(t, exitFailure, exitCodeFor(errors.New("boom")))
}

func TestRunQuery(t *testing.T) {
	queries := make(chan string, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sessions", r.URL.Path)
		select {
		case queries <- r.URL.RawQuery:
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{{"session_key": 9472, "session_name": "Race"}})
	}))
	t.Cleanup(upstream.Close)

	useViper(t, map[string]any{"openf1.base_url": upstream.URL + "/v1"})

	c, out := newTestCommand(t, func(c *cobra.Command) {
		c.Flags().StringArrayP("param", "p", nil, "")
		c.Flags().Bool("stats", false, "")
		addOutputFlag(c)
	})
	require.NoError(t, c.Flags().Set("output", "json"))
	require.NoError(t, c.Flags().Set("param", "year=2024"))
	require.NoError(t, c.Flags().Set("param", "session_name=Race"))
	require.NoError(t, c.Flags().Set("stats", "true"))

	require.NoError(t, runQuery(c, []string{"sessions"}))
	gotQuery := <-queries
	assert.Contains(t, gotQuery, "year=2024")
	assert.Contains(t, gotQuery, "session_name=Race")
	assert.Contains(t, out.String(), "9472")
	assert.Contains(t, out.String(), "cache_entries")
}

func TestRunQuery_BadOutputFormat(t *testing.T) {
	c, _ := newTestCommand(t, func(c *cobra.Command) {
		c.Flags().StringArrayP("param", "p", nil, "")
		c.Flags().Bool("stats", false, "")
		addOutputFlag(c)
	})
	require.NoError(t, c.Flags().Set("output", "yaml"))
	require.Error(t, runQuery(c, []string{"sessions"}))
}

func TestRunSchedule(t *testing.T) {
	useViper(t, map[string]any{"schedule.file": writeSchedule(t)})

	c, out := newTestCommand(t, func(c *cobra.Command) {
		c.Flags().String("at", "", "")
		c.Flags().Bool("upcoming", false, "")
		addOutputFlag(c)
	})
	require.NoError(t, c.Flags().Set("output", "json"))
	require.NoError(t, c.Flags().Set("at", "2024-03-05T00:00:00Z"))
	require.NoError(t, c.Flags().Set("upcoming", "true"))

	require.NoError(t, runSchedule(c, nil))
	assert.Contains(t, out.String(), "Saudi Arabian Grand Prix")
	assert.NotContains(t, out.String(), "Bahrain Grand Prix")
}

func TestRunSchedule_Unconfigured(t *testing.T) {
	useViper(t, nil)

	c, _ := newTestCommand(t, func(c *cobra.Command) {
		c.Flags().String("at", "", "")
		c.Flags().Bool("upcoming", false, "")
		addOutputFlag(c)
	})
	err := runSchedule(c, nil)
	require.Error(t, err)
	assert.Equal(t, errwrap.CodeInvalidInput, errwrap.EnsureEnvelope(err).Code)
}

func TestRunCalendar(t *testing.T) {
	useViper(t, map[string]any{"schedule.file": writeSchedule(t)})

	c, out := newTestCommand(t, nil)
	require.NoError(t, runCalendar(c, []string{"2024", "1"}))
	assert.Contains(t, out.String(), "Bahrain")

	err := runCalendar(c, []string{"2024", "9"})
	require.Error(t, err)
	assert.Equal(t, errwrap.CodeNotFound, errwrap.EnsureEnvelope(err).Code)

	require.Error(t, runCalendar(c, []string{"twenty", "1"}))
}

func TestRunVersion(t *testing.T) {
	c, out := newTestCommand(t, func(c *cobra.Command) {
		c.Flags().BoolP("extended", "e", false, "")
		c.Flags().Bool("json", false, "")
	})
	require.NoError(t, runVersion(c, nil))
	assert.Contains(t, out.String(), "gridwatch ")

	out.Reset()
	require.NoError(t, c.Flags().Set("json", "true"))
	require.NoError(t, runVersion(c, nil))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &payload))
	assert.Contains(t, payload, "app")
	assert.Contains(t, payload, "dependencies")
}

func TestWriteEnvInfo(t *testing.T) {
	useViper(t, nil)
	cfg, err := config.Load(viper.GetViper())
	require.NoError(t, err)

	var buf bytes.Buffer
	writeEnvInfo(&buf, cfg, "")
	assert.Contains(t, buf.String(), openf1.DefaultBaseURL)
	assert.Contains(t, buf.String(), "(none, defaults and environment)")
	assert.Contains(t, buf.String(), "Schedule File:   (unset)")
}

func TestSelfChecks(t *testing.T) {
	assert.Len(t, selfChecks(false), 2)
	assert.Len(t, selfChecks(true), 3)

	orig := versionInfo.Version
	t.Cleanup(func() { versionInfo.Version = orig })

	versionInfo.Version = ""
	require.Error(t, selfChecks(false)[0].run(context.Background(), &config.Config{}))
	versionInfo.Version = "1.2.3"
	require.NoError(t, selfChecks(false)[0].run(context.Background(), &config.Config{}))

	require.NoError(t, selfChecks(false)[1].run(context.Background(), &config.Config{}))
	missing := &config.Config{Schedule: config.ScheduleConfig{File: filepath.Join(t.TempDir(), "none.yaml")}}
	require.Error(t, selfChecks(false)[1].run(context.Background(), missing))
}
