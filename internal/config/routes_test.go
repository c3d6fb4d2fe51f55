package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoutes(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routes.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRoutes(t *testing.T) {
	path := writeRoutes(t, `
[[departures]]
from = "Brunnsparken"
destination = "Chalmers"
lines = ["55", "16"]
name = "To work"
delay = 5

[[departures]]
from = "9021014001760000"
destination = "9021014001960000"

[[journey_lists]]
from = "Brunnsparken"
destination = "Chalmers"
start_time = "08:00"
end_time = "09:00"

[[journey_lists]]
from = "Chalmers"
destination = "Brunnsparken"
start_time = "16:00"
end_time = "18:00"
time_relates_to = "arrival"
`)

	rf, err := LoadRoutes(path)
	require.NoError(t, err)
	require.Len(t, rf.Departures, 2)
	require.Len(t, rf.JourneyLists, 2)

	d := rf.Departures[0]
	assert.Equal(t, []string{"55", "16"}, d.Lines)
	assert.Equal(t, "To work", d.Name)
	assert.Equal(t, 5*time.Minute, d.Delay())
	assert.Zero(t, rf.Departures[1].Delay())

	assert.Equal(t, "departure", rf.JourneyLists[0].RelatesTo())
	assert.Equal(t, "arrival", rf.JourneyLists[1].RelatesTo())
}

func TestLoadRoutesMissingFile(t *testing.T) {
	_, err := LoadRoutes(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidateRejectsIncompleteDeparture(t *testing.T) {
	path := writeRoutes(t, `
[[departures]]
from = "Brunnsparken"
`)
	_, err := LoadRoutes(path)
	assert.ErrorContains(t, err, "destination")
}

func TestValidateRejectsBadWindowTimes(t *testing.T) {
	path := writeRoutes(t, `
[[journey_lists]]
from = "A"
destination = "B"
start_time = "8am"
end_time = "09:00"
`)
	_, err := LoadRoutes(path)
	assert.ErrorContains(t, err, "start_time")
}

func TestValidateRejectsBadRelatesTo(t *testing.T) {
	path := writeRoutes(t, `
[[journey_lists]]
from = "A"
destination = "B"
start_time = "08:00"
end_time = "09:00"
time_relates_to = "sometime"
`)
	_, err := LoadRoutes(path)
	assert.ErrorContains(t, err, "time_relates_to")
}

func TestValidateRejectsNegativeDelay(t *testing.T) {
	path := writeRoutes(t, `
[[departures]]
from = "A"
destination = "B"
delay = -1
`)
	_, err := LoadRoutes(path)
	assert.ErrorContains(t, err, "delay")
}
