package report

import (
	"context"

	"peoplebot/internal/models"
)

// Field is one titled list inside an attachment, e.g. "Out Today:" with
// one line per person.
type Field struct {
	Title string
	Value string
	Short bool
}

// Attachment groups titled fields under one collapsible block.
type Attachment struct {
	Title     string
	Collapsed bool
	Fields    []Field
}

// Notifier delivers report output. Reports never touch transport details
// of message delivery; the chat client implements this.
type Notifier interface {
	// SendMessage posts to a room identified by id or name.
	SendMessage(ctx context.Context, room, text string, attachments []Attachment) error
	// SendDirect posts into the direct room between the bot and the given
	// user. When no direct room can be resolved the notification is
	// silently skipped.
	SendDirect(ctx context.Context, username, text string, attachments []Attachment) error
	// CreateDiscussion opens a sub-room under a parent room for replies,
	// named by displayName. Callers pass a fresh slug per call; transports
	// whose API derives the room name server-side keep the slug for
	// traceability only.
	CreateDiscussion(ctx context.Context, parentRoom, slug, displayName, reply string) error
}

// PeopleSource is the slice of the people cache the reports depend on.
type PeopleSource interface {
	EnsureFresh(ctx context.Context) error
	Snapshot() *models.Snapshot
}
