package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peoplebot/internal/models"
)

func newBirthdayTest(snapshot *models.Snapshot, now time.Time) (*Birthday, *fakeNotifier) {
	notifier := &fakeNotifier{}
	b := NewBirthday(testLogger(), &fakeSource{snapshot: snapshot}, notifier, "main-room")
	b.now = func() time.Time { return now }
	b.newSlug = func() string { return "fresh-slug" }
	return b, notifier
}

func TestBirthdayWishAndDiscussion(t *testing.T) {
	now := time.Date(2026, time.March, 25, 9, 0, 0, 0, time.UTC)
	snapshot := &models.Snapshot{
		BirthdaysToday: map[string]models.Employee{
			"Ada Lovelace 1": {Key: "Ada Lovelace 1", Username: "ada", BirthMonth: time.March, BirthDay: 25},
			"Grace Hopper 2": {Key: "Grace Hopper 2", Username: "grace", BirthMonth: time.March, BirthDay: 25},
		},
	}

	b, notifier := newBirthdayTest(snapshot, now)
	require.NoError(t, b.Run(context.Background(), ""))

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "main-room", notifier.messages[0].room)
	assert.Equal(t, "Let's wish a happy birthday to @ada and @grace :point_down:", notifier.messages[0].text)

	require.Len(t, notifier.discussions, 1)
	discussion := notifier.discussions[0]
	assert.Equal(t, "main-room", discussion.parentRoom)
	assert.Equal(t, "fresh-slug", discussion.slug)
	assert.Equal(t, "Happy Birthday - @ada and @grace", discussion.displayName)
	assert.Equal(t, "Happy Birthday @ada and @grace", discussion.reply)
}

func TestBirthdayNothingToPost(t *testing.T) {
	now := time.Date(2026, time.March, 25, 9, 0, 0, 0, time.UTC)
	b, notifier := newBirthdayTest(&models.Snapshot{}, now)
	require.NoError(t, b.Run(context.Background(), ""))

	assert.Empty(t, notifier.messages)
	assert.Empty(t, notifier.discussions)
}

func TestBirthdayMonthDigestOnFirstOfMonth(t *testing.T) {
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	snapshot := &models.Snapshot{
		Employees: []models.Employee{
			{Key: "Ada Lovelace 1", Username: "ada", BirthMonth: time.March, BirthDay: 20},
			{Key: "Grace Hopper 2", Username: "grace", BirthMonth: time.March, BirthDay: 5},
			{Key: "Alan Turing 3", Username: "alan", BirthMonth: time.April, BirthDay: 2},
			// Today's birthday goes to the announcement, not the digest.
			{Key: "Dana Day 4", Username: "dana", BirthMonth: time.March, BirthDay: 1},
		},
		BirthdaysToday: map[string]models.Employee{
			"Dana Day 4": {Key: "Dana Day 4", Username: "dana", BirthMonth: time.March, BirthDay: 1},
		},
	}

	b, notifier := newBirthdayTest(snapshot, now)
	require.NoError(t, b.Run(context.Background(), ""))

	// The wish and the digest are separate messages.
	require.Len(t, notifier.messages, 2)
	digest := notifier.messages[1]
	assert.Equal(t, "main-room", digest.room)
	require.Len(t, digest.attachments, 1)
	require.Len(t, digest.attachments[0].Fields, 1)
	field := digest.attachments[0].Fields[0]
	assert.Equal(t, "Birthdays this month:", field.Title)
	assert.Equal(t, "\n@grace - 5\n@ada - 20", field.Value, "sorted ascending by day, April and today excluded")
	assert.True(t, field.Short)
}

func TestBirthdayDigestSkippedMidMonth(t *testing.T) {
	now := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)
	snapshot := &models.Snapshot{
		Employees: []models.Employee{
			{Key: "Ada Lovelace 1", Username: "ada", BirthMonth: time.March, BirthDay: 20},
		},
	}

	b, notifier := newBirthdayTest(snapshot, now)
	require.NoError(t, b.Run(context.Background(), ""))
	assert.Empty(t, notifier.messages)
}

func TestBirthdayDigestOnDirectRequest(t *testing.T) {
	now := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)
	snapshot := &models.Snapshot{
		Employees: []models.Employee{
			{Key: "Ada Lovelace 1", Username: "ada", BirthMonth: time.March, BirthDay: 20},
		},
	}

	b, notifier := newBirthdayTest(snapshot, now)
	require.NoError(t, b.Run(context.Background(), "grace"))

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "grace", notifier.messages[0].username)
}
