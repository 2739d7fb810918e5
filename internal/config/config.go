package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"peoplebot/internal/people"
)

// CalDAV holds the optional calendar publishing target.
type CalDAV struct {
	URL      string
	Username string
	Password string
}

// Config carries everything the bot reads from the environment.
type Config struct {
	PeopleClientID     string
	PeopleClientSecret string
	PeopleRefreshToken string

	RocketURL       string
	RocketUserID    string
	RocketAuthToken string
	BotAlias        string
	BotEmoji        string

	MainRoom        string
	DepartmentRooms map[string]string
	FieldMap        people.FieldMap
	CacheTTL        time.Duration

	// HolidayCountries is a comma-separated country list an earlier
	// variant fed to an external holiday source. Carried for settings
	// compatibility; the HR backend now serves holidays directly.
	HolidayCountries string

	CalDAV CalDAV
}

// Load reads the configuration from environment variables. Required
// settings missing is an error; a broken department-rooms mapping only
// logs a warning and degrades to main-room routing.
func Load(logger *slog.Logger) (*Config, error) {
	cfg := &Config{
		PeopleClientID:     os.Getenv("PEOPLE_CLIENT_ID"),
		PeopleClientSecret: os.Getenv("PEOPLE_CLIENT_SECRET"),
		PeopleRefreshToken: os.Getenv("PEOPLE_REFRESH_TOKEN"),
		RocketURL:          os.Getenv("ROCKETCHAT_URL"),
		RocketUserID:       os.Getenv("ROCKETCHAT_USER_ID"),
		RocketAuthToken:    os.Getenv("ROCKETCHAT_AUTH_TOKEN"),
		BotAlias:           envDefault("BOT_ALIAS", "Zorro"),
		BotEmoji:           envDefault("BOT_EMOJI", ":fox:"),
		MainRoom:           os.Getenv("MAIN_ROOM"),
		HolidayCountries:   os.Getenv("HOLIDAY_COUNTRIES"),
		FieldMap:           people.DefaultFieldMap(),
		CacheTTL:           people.DefaultTTL,
		CalDAV: CalDAV{
			URL:      os.Getenv("CALDAV_URL"),
			Username: os.Getenv("CALDAV_USERNAME"),
			Password: os.Getenv("CALDAV_PASSWORD"),
		},
	}

	for name, value := range map[string]string{
		"PEOPLE_CLIENT_ID":      cfg.PeopleClientID,
		"PEOPLE_CLIENT_SECRET":  cfg.PeopleClientSecret,
		"PEOPLE_REFRESH_TOKEN":  cfg.PeopleRefreshToken,
		"ROCKETCHAT_URL":        cfg.RocketURL,
		"ROCKETCHAT_USER_ID":    cfg.RocketUserID,
		"ROCKETCHAT_AUTH_TOKEN": cfg.RocketAuthToken,
		"MAIN_ROOM":             cfg.MainRoom,
	} {
		if value == "" {
			return nil, fmt.Errorf("%s environment variable not set", name)
		}
	}

	if raw := os.Getenv("DEPARTMENT_ROOMS_JSON"); raw != "" {
		rooms := make(map[string]string)
		if err := json.Unmarshal([]byte(raw), &rooms); err != nil {
			logger.Warn("Invalid department rooms mapping, routing all reports to the main room.", "error", err)
		} else {
			cfg.DepartmentRooms = rooms
		}
	}

	if raw := os.Getenv("PEOPLE_FIELD_MAP_JSON"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.FieldMap); err != nil {
			return nil, fmt.Errorf("invalid PEOPLE_FIELD_MAP_JSON: %w", err)
		}
	}

	if raw := os.Getenv("CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_TTL %q: %w", raw, err)
		}
		cfg.CacheTTL = ttl
	}

	return cfg, nil
}

func envDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
