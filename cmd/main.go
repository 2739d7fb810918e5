package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"peoplebot/internal/calendar"
	"peoplebot/internal/config"
	"peoplebot/internal/people"
	"peoplebot/internal/report"
	"peoplebot/internal/rocketchat"
	"peoplebot/internal/server"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "peoplebot",
		Usage: "Post HR summaries (who's out, birthdays, anniversaries) to Rocket.Chat.",
		Commands: []*cli.Command{
			whosoutCommand(),
			birthdaysCommand(),
			anniversariesCommand(),
			exportICalCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// bot bundles everything a single report run needs.
type bot struct {
	cfg         *config.Config
	cache       *people.Cache
	whosout     *report.Whosout
	birthday    *report.Birthday
	anniversary *report.Anniversary
}

func newBot(logger *slog.Logger) (*bot, error) {
	cfg, err := config.Load(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	client := people.NewClient(logger, cfg.PeopleClientID, cfg.PeopleClientSecret, cfg.PeopleRefreshToken, cfg.FieldMap)
	cache := people.NewCache(logger, client, cfg.CacheTTL)
	notifier := rocketchat.NewClient(logger, cfg.RocketURL, cfg.RocketUserID, cfg.RocketAuthToken, cfg.BotAlias, cfg.BotEmoji)

	return &bot{
		cfg:         cfg,
		cache:       cache,
		whosout:     report.NewWhosout(logger, cache, notifier, cfg.MainRoom, cfg.DepartmentRooms),
		birthday:    report.NewBirthday(logger, cache, notifier, cfg.MainRoom),
		anniversary: report.NewAnniversary(logger, cache, notifier, cfg.MainRoom, nil),
	}, nil
}

func userFlag() cli.Flag {
	return &cli.StringFlag{Name: "user", Usage: "Send the report as a direct message to this username instead of the main room."}
}

func whosoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "whosout",
		Usage: "Post who is out today and the next business day, grouped by department.",
		Flags: []cli.Flag{userFlag()},
		Action: func(c *cli.Context) error {
			b, err := newBot(loggerFromEnv())
			if err != nil {
				return err
			}
			return b.whosout.Run(c.Context, c.String("user"))
		},
	}
}

func birthdaysCommand() *cli.Command {
	return &cli.Command{
		Name:  "birthdays",
		Usage: "Post today's birthday wishes and, on the 1st, the monthly digest.",
		Flags: []cli.Flag{userFlag()},
		Action: func(c *cli.Context) error {
			b, err := newBot(loggerFromEnv())
			if err != nil {
				return err
			}
			return b.birthday.Run(c.Context, c.String("user"))
		},
	}
}

func anniversariesCommand() *cli.Command {
	return &cli.Command{
		Name:  "anniversaries",
		Usage: "Post work anniversary congratulations grouped by tenure.",
		Flags: []cli.Flag{userFlag()},
		Action: func(c *cli.Context) error {
			b, err := newBot(loggerFromEnv())
			if err != nil {
				return err
			}
			return b.anniversary.Run(c.Context, c.String("user"))
		},
	}
}

func exportICalCommand() *cli.Command {
	return &cli.Command{
		Name:  "export-ical",
		Usage: "Export today's out-of-office set as an iCalendar file, optionally publishing it over WebDAV.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "out-of-office.ics", Usage: "Path of the .ics file to write."},
			&cli.BoolFlag{Name: "publish", Usage: "Upload to the CALDAV_URL collection instead of writing a local file."},
		},
		Action: func(c *cli.Context) error {
			logger := loggerFromEnv()
			b, err := newBot(logger)
			if err != nil {
				return err
			}
			exporter := calendar.NewExporter(logger, b.cache)
			if c.Bool("publish") {
				if b.cfg.CalDAV.URL == "" {
					return fmt.Errorf("CALDAV_URL environment variable not set")
				}
				return exporter.Publish(c.Context, b.cfg.CalDAV.URL, b.cfg.CalDAV.Username, b.cfg.CalDAV.Password)
			}
			return exporter.WriteFile(c.Context, c.String("out"))
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP trigger endpoints for external schedulers (POST /whosout, /birthday, /anniversary).",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "Address to listen on."},
			&cli.IntFlag{Name: "interval", Value: 86400, Usage: "Also re-run all reports every N seconds, for deployments without a scheduler."},
		},
		Action: func(c *cli.Context) error {
			logger := loggerFromEnv()
			b, err := newBot(logger)
			if err != nil {
				return err
			}
			srv := server.New(logger, b.whosout, b.birthday, b.anniversary)
			if c.IsSet("interval") {
				interval := time.Duration(c.Int("interval")) * time.Second
				go srv.RunEvery(c.Context, interval)
			}
			logger.Info("Listening for report triggers.", "addr", c.String("addr"))
			return http.ListenAndServe(c.String("addr"), srv.Routes())
		},
	}
}

func loggerFromEnv() *slog.Logger {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	return setupLogger(level)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
