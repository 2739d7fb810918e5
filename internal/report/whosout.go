package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"peoplebot/internal/models"
)

const whosoutTitle = "*Out of Office*"

// bucket holds the per-department lists of the who's-out report.
type bucket struct {
	today     []string
	next      []string
	holidays  []string
	birthdays []string
}

// badge counts the people out today; next-business-day entries are
// deliberately excluded.
func (b *bucket) badge() int {
	return len(b.today) + len(b.holidays) + len(b.birthdays)
}

// Whosout posts the daily out-of-office summary grouped by department.
type Whosout struct {
	logger          *slog.Logger
	cache           PeopleSource
	notifier        Notifier
	mainRoom        string
	departmentRooms map[string]string
	now             func() time.Time
}

// NewWhosout creates the who's-out report. departmentRooms may be nil, in
// which case only the main room receives the summary.
func NewWhosout(logger *slog.Logger, cache PeopleSource, notifier Notifier, mainRoom string, departmentRooms map[string]string) *Whosout {
	return &Whosout{
		logger:          logger,
		cache:           cache,
		notifier:        notifier,
		mainRoom:        mainRoom,
		departmentRooms: departmentRooms,
		now:             time.Now,
	}
}

// Run generates and posts the report. With a directUser set, the summary
// goes to that user's direct room instead of the main room.
func (w *Whosout) Run(ctx context.Context, directUser string) error {
	if err := w.cache.EnsureFresh(ctx); err != nil {
		return fmt.Errorf("refreshing people cache: %w", err)
	}
	snapshot := w.cache.Snapshot()
	buckets := buildBuckets(snapshot, Midnight(w.now()))

	departments := make([]string, 0, len(buckets))
	for department := range buckets {
		departments = append(departments, department)
	}
	sort.Strings(departments)

	var attachments []Attachment
	for _, department := range departments {
		b := buckets[department]
		fields := bucketFields(b)
		if len(fields) > 0 {
			attachments = append(attachments, Attachment{
				Title:     fmt.Sprintf("%s (%d today)", department, b.badge()),
				Collapsed: true,
				Fields:    fields,
			})
		}

		room, ok := w.departmentRooms[department]
		if !ok {
			continue
		}
		err := w.notifier.SendMessage(ctx, room, whosoutTitle, []Attachment{{
			Title:  fmt.Sprintf("%d today", b.badge()),
			Fields: fields,
		}})
		if err != nil {
			w.logger.Error("Failed to post department summary.", "department", department, "error", err)
		}
	}

	if directUser != "" {
		return w.notifier.SendDirect(ctx, directUser, whosoutTitle, attachments)
	}
	return w.notifier.SendMessage(ctx, w.mainRoom, whosoutTitle, attachments)
}

// buildBuckets partitions leaves, holidays and birthdays by department.
func buildBuckets(snapshot *models.Snapshot, today time.Time) map[string]*bucket {
	employees := make(map[string]models.Employee, len(snapshot.Employees))
	for _, employee := range snapshot.Employees {
		employees[employee.Key] = employee
	}
	next := NextBusinessDay(today)

	buckets := make(map[string]*bucket)
	departmentBucket := func(department string) *bucket {
		b, ok := buckets[department]
		if !ok {
			b = &bucket{}
			buckets[department] = b
		}
		return b
	}

	for key, leaves := range snapshot.Leaves {
		employee, ok := employees[key]
		if !ok {
			continue
		}
		for _, leave := range leaves {
			if !leave.Reportable() {
				continue
			}
			who := employee.DisplayName + leaveInfo(leave)
			if DateBetween(today, leave.From, leave.To) {
				b := departmentBucket(employee.Department)
				b.today = append(b.today, who)
			} else if DateBetween(next, leave.From, leave.To) {
				b := departmentBucket(employee.Department)
				b.next = append(b.next, who)
			}
		}
	}

	for key, holidays := range snapshot.Holidays {
		employee, ok := employees[key]
		if !ok {
			continue
		}
		b := departmentBucket(employee.Department)
		for _, holiday := range holidays {
			b.holidays = append(b.holidays, fmt.Sprintf("%s, %s", employee.DisplayName, holiday.DisplayName()))
		}
	}

	for _, employee := range snapshot.BirthdaysToday {
		b := departmentBucket(employee.Department)
		b.birthdays = append(b.birthdays, employee.DisplayName)
	}

	return buckets
}

// leaveInfo renders the leave amount, unit and end date, e.g.
// ", 2 days, until Wed Mar 25". Hour leaves are same-day so the "until"
// part is dropped, and pending requests are marked.
func leaveInfo(leave models.Leave) string {
	amount := strings.TrimSuffix(leave.Amount, ".0")
	plural := ""
	if n, err := strconv.ParseFloat(amount, 64); err == nil && int(n) > 1 {
		plural = "s"
	}
	info := fmt.Sprintf(", %s %s%s", amount, strings.ToLower(string(leave.Unit)), plural)
	if leave.Unit != models.UnitHour {
		info += ", until " + leave.To.Format("Mon Jan 02")
	}
	if leave.Pending() {
		info += " _(pending)_"
	}
	return info
}

func bucketFields(b *bucket) []Field {
	var fields []Field
	appendField := func(title string, list []string) {
		if len(list) == 0 {
			return
		}
		sort.Strings(list)
		fields = append(fields, Field{Title: title, Value: strings.Join(list, "\n")})
	}
	appendField("Out Today:\n", b.today)
	appendField("On a Holiday:\n", b.holidays)
	appendField("Birthday:\n", b.birthdays)
	appendField("Out Next:\n", b.next)
	return fields
}
