package report

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peoplebot/internal/models"
)

// renderedTemplates expands all three templates for one tenure group, to
// assert a message without pinning which template the random source picked.
func renderedTemplates(mentions string, years int, plural bool) []string {
	out := make([]string, len(anniversaryTemplates))
	for i, tmpl := range anniversaryTemplates {
		out[i] = strings.NewReplacer(
			"{username}", strings.TrimPrefix(mentions, "@"),
			"{is_are}", map[bool]string{true: "are", false: "is"}[plural],
			"{years}", strconv.Itoa(years),
			"{_years}", map[bool]string{true: "years", false: "year"}[years > 1],
		).Replace(tmpl)
	}
	return out
}

func newAnniversaryTest(snapshot *models.Snapshot, seed int64) (*Anniversary, *fakeNotifier) {
	notifier := &fakeNotifier{}
	a := NewAnniversary(testLogger(), &fakeSource{snapshot: snapshot}, notifier, "main-room", rand.New(rand.NewSource(seed)))
	a.now = func() time.Time { return time.Date(2026, time.March, 25, 9, 0, 0, 0, time.UTC) }
	return a, notifier
}

func joined(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestAnniversaryGroupsByTenureDescending(t *testing.T) {
	snapshot := &models.Snapshot{
		Employees: []models.Employee{
			{Key: "a", Username: "ada", JoinDate: joined(2016, 3, 25)},
			{Key: "b", Username: "grace", JoinDate: joined(2016, 3, 25)},
			{Key: "c", Username: "alan", JoinDate: joined(2021, 3, 25)},
			{Key: "d", Username: "dana", JoinDate: joined(2026, 3, 25)}, // day-one hire, no message
			{Key: "e", Username: "eve", JoinDate: joined(2016, 3, 24)},  // wrong day
			{Key: "f", Username: "fred"},                                // no join date
		},
	}

	a, notifier := newAnniversaryTest(snapshot, 1)
	require.NoError(t, a.Run(context.Background(), ""))

	require.Len(t, notifier.messages, 2, "one message per tenure group, zero-year group suppressed")

	// Longest-tenured group first, plural agreement.
	assert.Contains(t, renderedTemplates("@ada and @grace", 10, true), notifier.messages[0].text)
	// Single-person group uses singular phrasing.
	assert.Contains(t, renderedTemplates("@alan", 5, false), notifier.messages[1].text)

	for _, msg := range notifier.messages {
		assert.Equal(t, "main-room", msg.room)
		assert.NotContains(t, msg.text, "dana")
		assert.NotContains(t, msg.text, "eve")
	}
}

func TestAnniversarySingularYear(t *testing.T) {
	snapshot := &models.Snapshot{
		Employees: []models.Employee{
			{Key: "a", Username: "ada", JoinDate: joined(2025, 3, 25)},
		},
	}

	a, notifier := newAnniversaryTest(snapshot, 7)
	require.NoError(t, a.Run(context.Background(), ""))

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, renderedTemplates("@ada", 1, false), notifier.messages[0].text)
	assert.NotContains(t, notifier.messages[0].text, "years")
}

func TestAnniversarySameSeedIsDeterministic(t *testing.T) {
	snapshot := &models.Snapshot{
		Employees: []models.Employee{
			{Key: "a", Username: "ada", JoinDate: joined(2020, 3, 25)},
			{Key: "b", Username: "grace", JoinDate: joined(2018, 3, 25)},
		},
	}

	first, firstNotifier := newAnniversaryTest(snapshot, 42)
	require.NoError(t, first.Run(context.Background(), ""))
	second, secondNotifier := newAnniversaryTest(snapshot, 42)
	require.NoError(t, second.Run(context.Background(), ""))

	require.Len(t, firstNotifier.messages, 2)
	for i := range firstNotifier.messages {
		assert.Equal(t, firstNotifier.messages[i].text, secondNotifier.messages[i].text)
	}
}

func TestAnniversaryNoMatchesPostsNothing(t *testing.T) {
	snapshot := &models.Snapshot{
		Employees: []models.Employee{
			{Key: "a", Username: "ada", JoinDate: joined(2016, 6, 1)},
		},
	}

	a, notifier := newAnniversaryTest(snapshot, 1)
	require.NoError(t, a.Run(context.Background(), ""))
	assert.Empty(t, notifier.messages)
}
