package report

import (
	"context"
	"io"
	"log/slog"

	"peoplebot/internal/models"
)

type fakeSource struct {
	snapshot    *models.Snapshot
	ensureCalls int
	err         error
}

func (f *fakeSource) EnsureFresh(context.Context) error {
	f.ensureCalls++
	return f.err
}

func (f *fakeSource) Snapshot() *models.Snapshot { return f.snapshot }

type sentMessage struct {
	room        string
	username    string // set for direct messages
	text        string
	attachments []Attachment
}

type sentDiscussion struct {
	parentRoom  string
	slug        string
	displayName string
	reply       string
}

type fakeNotifier struct {
	messages    []sentMessage
	discussions []sentDiscussion
	noDirect    bool // simulate an unresolvable direct room
}

func (f *fakeNotifier) SendMessage(_ context.Context, room, text string, attachments []Attachment) error {
	f.messages = append(f.messages, sentMessage{room: room, text: text, attachments: attachments})
	return nil
}

func (f *fakeNotifier) SendDirect(_ context.Context, username, text string, attachments []Attachment) error {
	if f.noDirect {
		return nil
	}
	f.messages = append(f.messages, sentMessage{username: username, text: text, attachments: attachments})
	return nil
}

func (f *fakeNotifier) CreateDiscussion(_ context.Context, parentRoom, slug, displayName, reply string) error {
	f.discussions = append(f.discussions, sentDiscussion{parentRoom: parentRoom, slug: slug, displayName: displayName, reply: reply})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
