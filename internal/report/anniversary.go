package report

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"
)

// anniversaryTemplates are picked from uniformly at random, one
// independent choice per tenure group, for a little message variety.
var anniversaryTemplates = []string{
	"@{username} {is_are} completing {years} {_years} with us today, let's celebrate so many more may come!",
	"Today is @{username} {years} {_years} work anniversary, let's celebrate together!",
	"Today marks @{username} {years}-year anniversary on the team, congratulations!!",
}

// Anniversary posts one congratulation message per tenure group for
// everybody whose joining month and day match today.
type Anniversary struct {
	logger   *slog.Logger
	cache    PeopleSource
	notifier Notifier
	mainRoom string
	now      func() time.Time
	rand     *rand.Rand
}

// NewAnniversary creates the anniversary report. The random source drives
// template selection and is injectable so tests can seed it.
func NewAnniversary(logger *slog.Logger, cache PeopleSource, notifier Notifier, mainRoom string, random *rand.Rand) *Anniversary {
	if random == nil {
		random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Anniversary{
		logger:   logger,
		cache:    cache,
		notifier: notifier,
		mainRoom: mainRoom,
		now:      time.Now,
		rand:     random,
	}
}

// Run groups today's anniversaries by whole years of tenure and posts the
// longest-tenured groups first. Day-one hires (zero years) get no message.
func (a *Anniversary) Run(ctx context.Context, directUser string) error {
	if err := a.cache.EnsureFresh(ctx); err != nil {
		return fmt.Errorf("refreshing people cache: %w", err)
	}
	snapshot := a.cache.Snapshot()
	now := a.now()

	// Tenure is computed once from a single reference time, so it is
	// stable for the whole run.
	groups := make(map[int][]string)
	for _, employee := range snapshot.Employees {
		if employee.JoinDate.IsZero() || employee.Username == "" {
			continue
		}
		if employee.JoinDate.Month() != now.Month() || employee.JoinDate.Day() != now.Day() {
			continue
		}
		years := now.Year() - employee.JoinDate.Year()
		groups[years] = append(groups[years], employee.Username)
	}

	tenures := make([]int, 0, len(groups))
	for years := range groups {
		if years > 0 {
			tenures = append(tenures, years)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(tenures)))

	for _, years := range tenures {
		usernames := groups[years]
		sort.Strings(usernames)
		message := a.renderMessage(usernames, years)
		if directUser != "" {
			if err := a.notifier.SendDirect(ctx, directUser, message, nil); err != nil {
				return fmt.Errorf("posting anniversary message: %w", err)
			}
			continue
		}
		if err := a.notifier.SendMessage(ctx, a.mainRoom, message, nil); err != nil {
			return fmt.Errorf("posting anniversary message: %w", err)
		}
	}
	return nil
}

func (a *Anniversary) renderMessage(usernames []string, years int) string {
	// The template supplies the leading "@", so the first name goes bare.
	mentions := strings.TrimPrefix(MentionList(usernames), "@")

	replacer := strings.NewReplacer(
		"{username}", mentions,
		"{is_are}", pick(len(usernames) > 1, "are", "is"),
		"{years}", strconv.Itoa(years),
		"{_years}", pick(years > 1, "years", "year"),
	)
	return replacer.Replace(anniversaryTemplates[a.rand.Intn(len(anniversaryTemplates))])
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
