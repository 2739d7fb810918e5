package rocketchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"peoplebot/internal/report"
)

// authTransport adds the Rocket.Chat personal-access-token headers to
// every request.
type authTransport struct {
	UserID    string
	AuthToken string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("X-User-Id", t.UserID)
	req.Header.Set("X-Auth-Token", t.AuthToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "peoplebot/1.0")
	return t.Transport.RoundTrip(req)
}

// Client posts report output through the Rocket.Chat REST API. It
// implements report.Notifier.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	alias      string
	emoji      string
}

// NewClient creates a Rocket.Chat client authenticated as the bot user.
// alias and emoji decorate outgoing messages the way the bot presents
// itself ("Zorro", ":fox:").
func NewClient(logger *slog.Logger, baseURL, userID, authToken, alias, emoji string) *Client {
	transport := &authTransport{
		UserID:    userID,
		AuthToken: authToken,
		Transport: http.DefaultTransport,
	}
	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: 30 * time.Second},
		logger:     logger,
		baseURL:    baseURL,
		alias:      alias,
		emoji:      emoji,
	}
}

type wireField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short,omitempty"`
}

type wireAttachment struct {
	Title     string      `json:"title,omitempty"`
	Collapsed bool        `json:"collapsed,omitempty"`
	Fields    []wireField `json:"fields,omitempty"`
}

type postMessageRequest struct {
	Channel     string           `json:"channel"`
	Text        string           `json:"text,omitempty"`
	Alias       string           `json:"alias,omitempty"`
	Emoji       string           `json:"emoji,omitempty"`
	Attachments []wireAttachment `json:"attachments,omitempty"`
}

// SendMessage posts to a room by id or name.
func (c *Client) SendMessage(ctx context.Context, room, text string, attachments []report.Attachment) error {
	payload := postMessageRequest{
		Channel:     room,
		Text:        text,
		Alias:       c.alias,
		Emoji:       c.emoji,
		Attachments: toWire(attachments),
	}
	if err := c.post(ctx, "/api/v1/chat.postMessage", payload, nil); err != nil {
		return fmt.Errorf("posting message to %s: %w", room, err)
	}
	return nil
}

// SendDirect posts into the direct room between the bot and the user,
// creating the room if it does not exist yet. When the room cannot be
// resolved the notification is skipped without error, matching how the
// rest of the reports treat missing destinations.
func (c *Client) SendDirect(ctx context.Context, username, text string, attachments []report.Attachment) error {
	roomID, err := c.directRoom(ctx, username)
	if err != nil {
		c.logger.Warn("No direct room for user, skipping notification.", "username", username, "error", err)
		return nil
	}
	return c.SendMessage(ctx, roomID, text, attachments)
}

// CreateDiscussion opens a discussion under the parent room. The REST API
// derives the room's URL name from t_name server-side; the fresh slug is
// recorded for traceability of the created room.
func (c *Client) CreateDiscussion(ctx context.Context, parentRoom, slug, displayName, reply string) error {
	c.logger.Debug("Creating discussion.", "parent", parentRoom, "slug", slug)
	payload := struct {
		ParentRoomID string `json:"prid"`
		Name         string `json:"t_name"`
		Reply        string `json:"reply,omitempty"`
	}{ParentRoomID: parentRoom, Name: displayName, Reply: reply}
	if err := c.post(ctx, "/api/v1/rooms.createDiscussion", payload, nil); err != nil {
		return fmt.Errorf("creating discussion under %s: %w", parentRoom, err)
	}
	return nil
}

// directRoom resolves (or creates) the direct room between the bot and
// the given user and returns its id.
func (c *Client) directRoom(ctx context.Context, username string) (string, error) {
	var response struct {
		Room struct {
			ID string `json:"_id"`
		} `json:"room"`
	}
	payload := struct {
		Username string `json:"username"`
	}{Username: username}
	if err := c.post(ctx, "/api/v1/im.create", payload, &response); err != nil {
		return "", err
	}
	if response.Room.ID == "" {
		return "", fmt.Errorf("no direct room returned for %s", username)
	}
	return response.Room.ID, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func toWire(attachments []report.Attachment) []wireAttachment {
	var wire []wireAttachment
	for _, attachment := range attachments {
		wa := wireAttachment{Title: attachment.Title, Collapsed: attachment.Collapsed}
		for _, field := range attachment.Fields {
			wa.Fields = append(wa.Fields, wireField(field))
		}
		wire = append(wire, wa)
	}
	return wire
}
