package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for name, value := range map[string]string{
		"PEOPLE_CLIENT_ID":      "id",
		"PEOPLE_CLIENT_SECRET":  "secret",
		"PEOPLE_REFRESH_TOKEN":  "refresh",
		"ROCKETCHAT_URL":        "https://chat.example.com",
		"ROCKETCHAT_USER_ID":    "uid",
		"ROCKETCHAT_AUTH_TOKEN": "token",
		"MAIN_ROOM":             "general",
	} {
		t.Setenv(name, value)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(testLogger())
	require.NoError(t, err)
	assert.Equal(t, "general", cfg.MainRoom)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "Zorro", cfg.BotAlias)
	assert.Nil(t, cfg.DepartmentRooms)
	assert.Equal(t, "Date_of_birth", cfg.FieldMap.BirthDate)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("MAIN_ROOM", "")

	_, err := Load(testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAIN_ROOM")
}

func TestLoadDepartmentRooms(t *testing.T) {
	setRequired(t)
	t.Setenv("DEPARTMENT_ROOMS_JSON", `{"Engineering":"room-eng","Sales":"room-sales"}`)

	cfg, err := Load(testLogger())
	require.NoError(t, err)
	assert.Equal(t, "room-eng", cfg.DepartmentRooms["Engineering"])
}

func TestLoadBrokenDepartmentRoomsDegrades(t *testing.T) {
	setRequired(t)
	t.Setenv("DEPARTMENT_ROOMS_JSON", `{not json`)

	cfg, err := Load(testLogger())
	// Broken mapping only warns; reports fall back to the main room.
	require.NoError(t, err)
	assert.Nil(t, cfg.DepartmentRooms)
}

func TestLoadFieldMapOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("PEOPLE_FIELD_MAP_JSON", `{"leave_amount":"Days/Hours Taken"}`)

	cfg, err := Load(testLogger())
	require.NoError(t, err)
	assert.Equal(t, "Days/Hours Taken", cfg.FieldMap.LeaveAmount)
	// Untouched fields keep their defaults.
	assert.Equal(t, "From", cfg.FieldMap.LeaveFrom)
}

func TestLoadCacheTTL(t *testing.T) {
	setRequired(t)
	t.Setenv("CACHE_TTL", "5m")

	cfg, err := Load(testLogger())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)

	t.Setenv("CACHE_TTL", "soon")
	_, err = Load(testLogger())
	require.Error(t, err)
}
