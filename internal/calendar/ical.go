// Package calendar renders today's out-of-office set as an iCalendar
// feed, optionally publishing it to a WebDAV collection so a shared team
// calendar mirrors the chat report.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/google/uuid"

	"peoplebot/internal/models"
	"peoplebot/internal/report"
)

// basicAuthTransport handles adding Basic Auth and custom headers to
// requests against the WebDAV server.
type basicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "peoplebot/1.0")
	return t.Transport.RoundTrip(req)
}

// PeopleSource is the slice of the people cache the exporter depends on.
type PeopleSource interface {
	EnsureFresh(ctx context.Context) error
	Snapshot() *models.Snapshot
}

// Exporter builds the out-of-office calendar for the current day.
type Exporter struct {
	logger *slog.Logger
	cache  PeopleSource
	now    func() time.Time
}

func NewExporter(logger *slog.Logger, cache PeopleSource) *Exporter {
	return &Exporter{logger: logger, cache: cache, now: time.Now}
}

// Build assembles one VEVENT per leave covering today, per holiday and
// per birthday.
func (e *Exporter) Build(ctx context.Context) (*ical.Calendar, error) {
	if err := e.cache.EnsureFresh(ctx); err != nil {
		return nil, fmt.Errorf("refreshing people cache: %w", err)
	}
	snapshot := e.cache.Snapshot()
	today := report.Midnight(e.now())

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//peoplebot//EN")

	employees := make(map[string]models.Employee, len(snapshot.Employees))
	for _, employee := range snapshot.Employees {
		employees[employee.Key] = employee
	}

	count := 0
	for key, leaves := range snapshot.Leaves {
		employee, ok := employees[key]
		if !ok {
			continue
		}
		for _, leave := range leaves {
			if !leave.Reportable() || !report.DateBetween(today, leave.From, leave.To) {
				continue
			}
			end := report.Midnight(leave.To).AddDate(0, 0, 1)
			cal.Children = append(cal.Children, e.event(fmt.Sprintf("%s out of office", employee.DisplayName), today, end))
			count++
		}
	}
	for key, holidays := range snapshot.Holidays {
		employee, ok := employees[key]
		if !ok {
			continue
		}
		for _, holiday := range holidays {
			summary := fmt.Sprintf("%s, %s", employee.DisplayName, holiday.DisplayName())
			cal.Children = append(cal.Children, e.event(summary, today, today.AddDate(0, 0, 1)))
			count++
		}
	}
	for _, employee := range snapshot.BirthdaysToday {
		summary := fmt.Sprintf("Birthday: %s", employee.DisplayName)
		cal.Children = append(cal.Children, e.event(summary, today, today.AddDate(0, 0, 1)))
		count++
	}

	e.logger.Info("Built out-of-office calendar.", "events", count)
	return cal, nil
}

// event converts one report entry to an ical.Component (VEvent).
func (e *Exporter) event(summary string, start, end time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uuid.New().String())
	ve.Props.SetText(ical.PropSummary, summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, e.now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end)
	return ve
}

// WriteFile builds the calendar and writes it to the given path.
func (e *Exporter) WriteFile(ctx context.Context, path string) error {
	cal, err := e.Build(ctx)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating calendar file: %w", err)
	}
	defer f.Close()
	if err := ical.NewEncoder(f).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	e.logger.Info("Wrote out-of-office calendar.", "path", path)
	return nil
}

// Publish builds the calendar and uploads it to a WebDAV collection,
// named by day so republishing the same day overwrites.
func (e *Exporter) Publish(ctx context.Context, endpoint, username, password string) error {
	cal, err := e.Build(ctx)
	if err != nil {
		return err
	}

	transport := &basicAuthTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	client, err := webdav.NewClient(&http.Client{Transport: transport}, endpoint)
	if err != nil {
		return fmt.Errorf("creating webdav client: %w", err)
	}

	name := fmt.Sprintf("out-of-office-%s.ics", e.now().Format("2006-01-02"))
	writer, err := client.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("creating %s on WebDAV server: %w", name, err)
	}
	defer writer.Close()

	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	e.logger.Info("Published out-of-office calendar.", "name", name, "endpoint", endpoint)
	return nil
}
