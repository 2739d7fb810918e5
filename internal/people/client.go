package people

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"peoplebot/internal/models"
)

const (
	defaultBaseURL  = "https://people.zoho.com/people/api"
	defaultTokenURL = "https://accounts.zoho.com/oauth/v2/token"

	// pageSize is the fixed page the backend serves; a page shorter than
	// this is the termination signal, the API has no total-count header.
	pageSize = 200

	// invalidTokenMarker is the body substring the backend sends along
	// with a 401 when the access token has expired.
	invalidTokenMarker = "The provided OAuth token is invalid."
)

// Client talks to the HR backend. It holds the access token in memory,
// refreshing it lazily before the first request and once more whenever the
// backend rejects it.
type Client struct {
	// BaseURL is the API root. Defaults to the hosted endpoint.
	BaseURL string
	// TokenURL is the OAuth token endpoint. Defaults to the hosted endpoint.
	TokenURL string

	httpClient   *http.Client
	logger       *slog.Logger
	clientID     string
	clientSecret string
	refreshToken string
	fields       FieldMap

	mu    sync.Mutex
	token string
}

// NewClient creates a new HR API client using the refresh-token grant for
// authentication.
func NewClient(logger *slog.Logger, clientID, clientSecret, refreshToken string, fields FieldMap) *Client {
	return &Client{
		BaseURL:      defaultBaseURL,
		TokenURL:     defaultTokenURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		fields:       fields,
	}
}

// refreshAccessToken exchanges the stored refresh token for a new access
// token. A failure here is fatal for the whole fetch chain, there are no
// fallback credentials.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	conf := &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  "https://rocket.chat",
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.refreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("refreshing access token: %w", err)
	}
	return "Zoho-oauthtoken " + tok.AccessToken, nil
}

// isTokenError is the retryable predicate for the single retry-after-refresh.
func isTokenError(status int, body []byte) bool {
	return status == http.StatusUnauthorized && strings.Contains(string(body), invalidTokenMarker)
}

func (c *Client) do(ctx context.Context, path string, params url.Values, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+path+"?"+params.Encode(), nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	return resp.StatusCode, body, nil
}

// request issues one authenticated GET. An expired token is refreshed and
// the exact same request retried once; an error on the retried call
// propagates. The retry is deliberately bounded so a persistently invalid
// refresh token cannot recurse.
func (c *Client) request(ctx context.Context, path string, params url.Values) ([]byte, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token == "" {
		var err error
		token, err = c.refreshAccessToken(ctx)
		if err != nil {
			return nil, err
		}
		c.setToken(token)
	}

	status, body, err := c.do(ctx, path, params, token)
	if err != nil {
		return nil, err
	}
	if isTokenError(status, body) {
		c.logger.Debug("Access token rejected, refreshing.", "path", path)
		token, err = c.refreshAccessToken(ctx)
		if err != nil {
			return nil, err
		}
		c.setToken(token)
		if _, body, err = c.do(ctx, path, params, token); err != nil {
			return nil, err
		}
	}
	return body, nil
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// formResponse is the envelope the form-record endpoints use. Each record
// is an object keyed by its record id, whose value is a one-element array
// of field maps.
type formResponse struct {
	Response struct {
		Result []map[string][]map[string]any `json:"result"`
	} `json:"response"`
}

// parseFormRecords flattens the vendor envelope into plain field maps and
// reports the raw envelope entry count. Entries without fields parse to
// nothing but still count toward the page size, so one degenerate entry
// in a full page cannot end pagination early. A shape the client does not
// recognize yields no records, which callers treat as the end of
// pagination rather than an error.
func parseFormRecords(body []byte) ([]map[string]any, int) {
	var fr formResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, 0
	}
	var records []map[string]any
	for _, record := range fr.Response.Result {
		for _, fields := range record {
			if len(fields) > 0 {
				records = append(records, fields[0])
			}
		}
	}
	return records, len(fr.Response.Result)
}

// FetchEmployees pages through all active employees. Pagination stops at
// the first short page; only a transport-level error aborts the call.
func (c *Client) FetchEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	for start := 0; ; start += pageSize {
		params := url.Values{
			"searchParams": {`{searchField:"Employeestatus", searchOperator:"Is", searchText:"Active"}`},
			"sIndex":       {strconv.Itoa(start)},
			"limit":        {strconv.Itoa(pageSize)},
		}
		body, err := c.request(ctx, "forms/employee/getRecords", params)
		if err != nil {
			return nil, err
		}
		records, total := parseFormRecords(body)
		for _, raw := range records {
			employees = append(employees, c.parseEmployee(raw))
		}
		if total < pageSize {
			break
		}
	}
	c.logger.Info("Fetched employees from HR backend.", "count", len(employees))
	return employees, nil
}

// FetchLeaves pages through leave requests in a window of two months back
// through one day ahead of the reference date, keyed by the owning
// employee. Vendor month-day-year date strings are normalized to time
// values at this boundary.
func (c *Client) FetchLeaves(ctx context.Context, ref time.Time) (map[string][]models.Leave, error) {
	to := ref.AddDate(0, 0, 1)
	from := to.AddDate(0, -2, 0)
	c.logger.Debug("Fetching leaves.", "from", from.Format("2006-01-02"), "to", to.Format("2006-01-02"))

	leaves := make(map[string][]models.Leave)
	for start := 0; ; start += pageSize {
		params := url.Values{
			"searchParams": {fmt.Sprintf("{searchField:From,searchOperator:Between,searchText:'%s;%s'}",
				from.Format("02-Jan-2006"), to.Format("02-Jan-2006"))},
			"sIndex": {strconv.Itoa(start)},
			"limit":  {strconv.Itoa(pageSize)},
		}
		body, err := c.request(ctx, "forms/leave/getRecords", params)
		if err != nil {
			return nil, err
		}
		records, total := parseFormRecords(body)
		for _, raw := range records {
			leave, ok := c.parseLeave(raw)
			if !ok {
				continue
			}
			leaves[leave.EmployeeKey] = append(leaves[leave.EmployeeKey], leave)
		}
		if total < pageSize {
			break
		}
	}
	return leaves, nil
}

// holidayResponse is the envelope of the holiday endpoint, which unlike
// the form endpoints returns flat records.
type holidayResponse struct {
	Data []map[string]any `json:"data"`
}

// FetchHolidays fetches the holidays for exactly the reference date across
// all locations. A record listing several comma-separated location ids is
// fanned out to each of them.
func (c *Client) FetchHolidays(ctx context.Context, ref time.Time) (map[string][]models.Holiday, error) {
	day := ref.Format("2006-01-02")
	holidays := make(map[string][]models.Holiday)
	for start := 0; ; start += pageSize {
		params := url.Values{
			"location":   {"ALL"},
			"from":       {day},
			"to":         {day},
			"dateFormat": {"yyyy-MM-dd"},
			"sIndex":     {strconv.Itoa(start)},
		}
		body, err := c.request(ctx, "leave/v2/holidays/get", params)
		if err != nil {
			return nil, err
		}
		var hr holidayResponse
		if err := json.Unmarshal(body, &hr); err != nil {
			break
		}
		for _, raw := range hr.Data {
			holiday := c.parseHoliday(raw)
			for _, locationID := range holiday.LocationIDs {
				holidays[locationID] = append(holidays[locationID], holiday)
			}
		}
		if len(hr.Data) < pageSize {
			break
		}
	}
	return holidays, nil
}

func (c *Client) parseEmployee(raw map[string]any) models.Employee {
	f := c.fields
	first := stringField(raw, f.FirstName)
	last := stringField(raw, f.LastName)
	id := stringField(raw, f.EmployeeID)

	key := strings.TrimSpace(first + " " + last + " " + id)
	if key == "" {
		key = stringField(raw, f.RecordID)
	}

	e := models.Employee{
		Key:        key,
		FirstName:  first,
		LastName:   last,
		Department: stringField(raw, f.Department),
		LocationID: stringField(raw, f.LocationID),
		Email:      stringField(raw, f.Email),
	}
	if e.Department == "" {
		e.Department = "-"
	}
	e.DisplayName = stringField(raw, f.DisplayName)
	if e.DisplayName == "" {
		e.DisplayName = strings.TrimSpace(first + " " + last)
	}
	e.Username = username(stringField(raw, f.ProfileURL), e.Email)
	if month, day, ok := parseMonthDay(stringField(raw, f.BirthDate)); ok {
		e.BirthMonth, e.BirthDay = month, day
	}
	if join, err := time.Parse("01-02-2006", stringField(raw, f.JoinDate)); err == nil {
		e.JoinDate = join
	}
	return e
}

func (c *Client) parseLeave(raw map[string]any) (models.Leave, bool) {
	f := c.fields
	from, errFrom := time.Parse("01-02-2006", stringField(raw, f.LeaveFrom))
	to, errTo := time.Parse("01-02-2006", stringField(raw, f.LeaveTo))
	if errFrom != nil || errTo != nil {
		return models.Leave{}, false
	}
	return models.Leave{
		EmployeeKey: stringField(raw, f.LeaveOwner),
		From:        from,
		To:          to,
		Status:      models.LeaveStatus(stringField(raw, f.LeaveStatus)),
		Amount:      stringField(raw, f.LeaveAmount),
		Unit:        models.LeaveUnit(stringField(raw, f.LeaveUnit)),
	}, true
}

func (c *Client) parseHoliday(raw map[string]any) models.Holiday {
	f := c.fields
	holiday := models.Holiday{Name: stringField(raw, f.HolidayName)}
	if date, err := time.Parse("2006-01-02", stringField(raw, f.HolidayDate)); err == nil {
		holiday.Date = date
	}
	for _, locationID := range strings.Split(stringField(raw, f.HolidayLocID), ",") {
		if locationID != "" {
			holiday.LocationIDs = append(holiday.LocationIDs, locationID)
		}
	}
	return holiday
}

// username derives a chat username from the last path segment of the
// employee's profile URL, falling back to the local part of the email.
func username(profileURL, email string) string {
	if i := strings.LastIndex(profileURL, "/"); i != -1 && i+1 < len(profileURL) {
		return profileURL[i+1:]
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return ""
}

// parseMonthDay reads a vendor birth date, which carries only month and
// day ("12-25") but has also been seen with a trailing year.
func parseMonthDay(s string) (time.Month, int, bool) {
	parts := strings.Split(s, "-")
	if len(parts) < 2 {
		return 0, 0, false
	}
	month, errMonth := strconv.Atoi(parts[0])
	day, errDay := strconv.Atoi(parts[1])
	if errMonth != nil || errDay != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, false
	}
	return time.Month(month), day, true
}

// stringField reads a field that the backend may serve as a string or a
// bare number, depending on the API version.
func stringField(raw map[string]any, name string) string {
	switch v := raw[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
