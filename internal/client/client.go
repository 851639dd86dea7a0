package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sevenofnine/scheduler/internal/domain"
	"github.com/sevenofnine/scheduler/internal/version"
)

const DefaultBaseURL = "http://127.0.0.1:8080"

// Colors the browser form sends when the user did not pick any.
const (
	DefaultColor   = "#ffffff"
	DefaultBgColor = "#34c38f"
)

var ErrNotFound = errors.New("event not found")

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for k, v := range e.Fields {
			parts = append(parts, k+" "+v)
		}
		return fmt.Sprintf("server returned %d: %s", e.Status, strings.Join(parts, "; "))
	}
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Draft is an event as entered locally. Start and End are local wall-clock
// values and are converted to UTC before sending.
type Draft struct {
	Title       string
	Description string
	Start       any
	End         any
	Location    string
	Attendees   string
	IsAllDay    bool
	Category    string
	Color       string
	BgColor     string
	BorderColor string
	DragBgColor string
}

// Changes carries the new start and end reported by a drag or resize.
// Nil means unchanged.
type Changes struct {
	Start any
	End   any
}

type Options struct {
	BaseURL   string
	HTTP      HTTPDoer
	Converter Converter
	Logger    *slog.Logger
	Now       func() time.Time
}

// Client talks to the event endpoints and keeps every timestamp it hands
// out in local time.
type Client struct {
	base *url.URL
	http HTTPDoer
	conv Converter
	log  *slog.Logger
	now  func() time.Time
}

func New(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https: %q", raw)
	}
	doer := opts.HTTP
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{base: base, http: doer, conv: opts.Converter, log: logger, now: now}, nil
}

func (c *Client) Converter() Converter { return c.conv }

// Load fetches all events with start and end converted to local time.
func (c *Client) Load(ctx context.Context) ([]domain.WireEvent, error) {
	var events []domain.WireEvent
	if err := c.do(ctx, http.MethodGet, "/events", nil, &events); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	for i := range events {
		events[i] = c.local(events[i])
	}
	return events, nil
}

func (c *Client) Create(ctx context.Context, d Draft) (domain.WireEvent, error) {
	var resp mutationResponse
	if err := c.do(ctx, http.MethodPost, "/events", c.requestBody(d), &resp); err != nil {
		return domain.WireEvent{}, fmt.Errorf("create event: %w", err)
	}
	return c.local(resp.EventData), nil
}

// Update sends every field of d, the way the edit form does.
func (c *Client) Update(ctx context.Context, id string, d Draft) (domain.WireEvent, error) {
	return c.Patch(ctx, id, c.requestBody(d))
}

// Patch sends body as a partial update. Date fields in a map body are
// converted to UTC.
func (c *Client) Patch(ctx context.Context, id string, body any) (domain.WireEvent, error) {
	if id == "" {
		return domain.WireEvent{}, fmt.Errorf("update event: id is required")
	}
	if m, ok := body.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			if k == "startDate" || k == "endDate" {
				v = c.conv.ToUTC(v)
			}
			out[k] = v
		}
		body = out
	}
	var resp mutationResponse
	if err := c.do(ctx, http.MethodPut, "/events/"+id, body, &resp); err != nil {
		return domain.WireEvent{}, fmt.Errorf("update event %s: %w", id, err)
	}
	return c.local(resp.EventData), nil
}

// Move persists a drag or resize of ev, whose Start and End are local. It
// sends nothing and reports false when ch changes neither end.
func (c *Client) Move(ctx context.Context, ev domain.WireEvent, ch Changes) (bool, error) {
	if ch.Start == nil && ch.End == nil {
		return false, nil
	}
	if ev.ID == "" {
		return false, fmt.Errorf("move event: id is required")
	}
	start, end := any(ev.Start), any(ev.End)
	if ch.Start != nil {
		start = ch.Start
	}
	if ch.End != nil {
		end = ch.End
	}
	d := Draft{
		Title:       ev.Title,
		Description: ev.Body,
		Start:       c.orNow(start),
		End:         c.orNow(end),
		Location:    ev.Location,
		Attendees:   ev.Attendees,
		IsAllDay:    ev.IsAllday,
		Category:    ev.Category,
		Color:       ev.Color,
		BgColor:     ev.BgColor,
		BorderColor: ev.BorderColor,
		DragBgColor: ev.DragBgColor,
	}
	if _, err := c.Update(ctx, ev.ID, d); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete event: id is required")
	}
	if err := c.do(ctx, http.MethodDelete, "/events/"+id, nil, nil); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

type mutationResponse struct {
	Success   bool             `json:"success"`
	EventData domain.WireEvent `json:"eventData"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

func (c *Client) orNow(v any) any {
	if s, ok := unwrapDate(v); ok && s != "" {
		return s
	}
	return c.now().Format(domain.TimestampLayout)
}

func (c *Client) local(e domain.WireEvent) domain.WireEvent {
	e.Start = c.conv.ToLocal(e.Start)
	e.End = c.conv.ToLocal(e.End)
	return e
}

func (c *Client) requestBody(d Draft) domain.CreateRequest {
	category := d.Category
	if category == "" {
		category = domain.CategoryTime
		if d.IsAllDay {
			category = domain.CategoryAllDay
		}
	}
	bg := orDefault(d.BgColor, DefaultBgColor)
	return domain.CreateRequest{
		Title:               d.Title,
		Description:         d.Description,
		StartDate:           dateString(c.conv.ToUTC(d.Start)),
		EndDate:             dateString(c.conv.ToUTC(d.End)),
		Location:            d.Location,
		Attendees:           domain.Attendees(d.Attendees),
		Category:            category,
		IsAllDay:            d.IsAllDay,
		Color:               orDefault(d.Color, DefaultColor),
		BackgroundColor:     bg,
		BorderColor:         orDefault(d.BorderColor, bg),
		DragBackgroundColor: orDefault(d.DragBgColor, bg),
	}
}

func dateString(v any) string {
	s, _ := unwrapDate(v)
	return s
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("scheduler request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(data, &er) == nil {
			apiErr.Message = er.Error
			apiErr.Fields = er.Errors
		}
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
