package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"peoplebot/internal/models"
)

// Birthday posts the birthday wishes of the day and, on the first day of
// each month, the monthly digest.
type Birthday struct {
	logger   *slog.Logger
	cache    PeopleSource
	notifier Notifier
	mainRoom string
	now      func() time.Time
	newSlug  func() string
}

// NewBirthday creates the birthday report.
func NewBirthday(logger *slog.Logger, cache PeopleSource, notifier Notifier, mainRoom string) *Birthday {
	return &Birthday{
		logger:   logger,
		cache:    cache,
		notifier: notifier,
		mainRoom: mainRoom,
		now:      time.Now,
		newSlug:  uuid.NewString,
	}
}

// Run posts a wish mentioning everybody whose birthday is today, opens a
// discussion for the celebratory replies, and posts the month digest when
// it is the first of the month or a user asked directly. Empty lists post
// nothing.
func (b *Birthday) Run(ctx context.Context, directUser string) error {
	if err := b.cache.EnsureFresh(ctx); err != nil {
		return fmt.Errorf("refreshing people cache: %w", err)
	}
	snapshot := b.cache.Snapshot()
	now := b.now()

	var today []string
	for _, employee := range snapshot.BirthdaysToday {
		if employee.Username != "" {
			today = append(today, employee.Username)
		}
	}
	sort.Strings(today)

	if len(today) > 0 {
		mentions := MentionList(today)
		wish := fmt.Sprintf("Let's wish a happy birthday to %s :point_down:", mentions)
		if err := b.notifier.SendMessage(ctx, b.mainRoom, wish, nil); err != nil {
			return fmt.Errorf("posting birthday wish: %w", err)
		}
		err := b.notifier.CreateDiscussion(ctx, b.mainRoom, b.newSlug(),
			fmt.Sprintf("Happy Birthday - %s", mentions),
			fmt.Sprintf("Happy Birthday %s", mentions))
		if err != nil {
			b.logger.Error("Failed to create birthday discussion.", "error", err)
		}
	}

	if directUser == "" && now.Day() != 1 {
		return nil
	}
	digest := monthDigest(snapshot.Employees, now)
	if len(digest) == 0 {
		return nil
	}
	attachments := []Attachment{{Fields: []Field{{
		Title: "Birthdays this month:",
		Value: "\n" + joinDigest(digest),
		Short: true,
	}}}}
	if directUser != "" {
		return b.notifier.SendDirect(ctx, directUser, "", attachments)
	}
	return b.notifier.SendMessage(ctx, b.mainRoom, "", attachments)
}

type monthBirthday struct {
	username string
	day      int
}

// monthDigest lists this month's birthdays excluding today's, which get
// their own announcement, sorted ascending by day of month.
func monthDigest(employees []models.Employee, now time.Time) []monthBirthday {
	var digest []monthBirthday
	for _, employee := range employees {
		if employee.BirthMonth != now.Month() || employee.BirthDay == now.Day() || employee.Username == "" {
			continue
		}
		digest = append(digest, monthBirthday{username: employee.Username, day: employee.BirthDay})
	}
	sort.SliceStable(digest, func(i, j int) bool { return digest[i].day < digest[j].day })
	return digest
}

func joinDigest(digest []monthBirthday) string {
	lines := make([]string, len(digest))
	for i, entry := range digest {
		lines[i] = fmt.Sprintf("@%s - %d", entry.username, entry.day)
	}
	return strings.Join(lines, "\n")
}
