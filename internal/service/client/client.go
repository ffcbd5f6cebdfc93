package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/work-piyush006/lifesync-ai/internal/version"
)

// DefaultCallTimeout bounds individual API calls when no override is given.
const DefaultCallTimeout = 10 * time.Second

// Client wraps the daemon's loopback HTTP API with typed helpers.
type Client struct {
	// baseURL is the daemon's API root, e.g. "http://127.0.0.1:8095".
	baseURL string
	// httpClient performs the underlying requests.
	httpClient *http.Client

	// callTimeout is the default timeout for individual API calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// StatusError carries a non-success API response.
type StatusError struct {
	// Code is the HTTP status code.
	Code int
	// Message is the API's error text.
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("daemon answered %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether the error is a 404 API response.
func IsNotFound(err error) bool {
	var statusErr *StatusError

	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}

// IsConflict reports whether the error is a 409 API response, i.e. an
// action the ring session refused.
func IsConflict(err error) bool {
	var statusErr *StatusError

	return errors.As(err, &statusErr) && statusErr.Code == http.StatusConflict
}

// Dial builds a client for the daemon at the given address.
// The address is "host:port"; the daemon speaks plain HTTP on loopback.
func Dial(address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	baseURL := address
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	client := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		callTimeout: DefaultCallTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// GeoPoint is a coordinate pair on the wire.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Alarm is the API's alarm representation.
type Alarm struct {
	ID         int64     `json:"id"`
	Label      string    `json:"label"`
	Hour       int       `json:"hour"`
	Minute     int       `json:"minute"`
	Tone       string    `json:"tone"`
	ToneRef    string    `json:"tone_ref,omitempty"`
	Conditions []string  `json:"conditions"`
	GeoTarget  *GeoPoint `json:"geo_target,omitempty"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateAlarmRequest is the body of POST /v1/alarms.
type CreateAlarmRequest struct {
	Label      string    `json:"label"`
	Hour       int       `json:"hour"`
	Minute     int       `json:"minute"`
	Tone       string    `json:"tone,omitempty"`
	ToneRef    string    `json:"tone_ref,omitempty"`
	Conditions []string  `json:"conditions,omitempty"`
	GeoTarget  *GeoPoint `json:"geo_target,omitempty"`
	Enabled    *bool     `json:"enabled,omitempty"`
}

// ToneRecord is one registered tone-pool entry.
type ToneRecord struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the API's ring-session snapshot.
type Session struct {
	EpisodeID             string `json:"episode_id"`
	AlarmID               int64  `json:"alarm_id"`
	Label                 string `json:"label"`
	Phase                 string `json:"phase"`
	FaceConfirmed         bool   `json:"face_confirmed"`
	StepCount             int    `json:"step_count"`
	GeoConfirmed          bool   `json:"geo_confirmed"`
	PlaybackActive        bool   `json:"playback_active"`
	GateSatisfied         bool   `json:"gate_satisfied"`
	GeoTargetMissing      bool   `json:"geo_target_missing"`
	PenaltyNoticeEligible bool   `json:"penalty_notice_eligible"`
	FallbackAlarm         bool   `json:"fallback_alarm"`
	StartedAt             string `json:"started_at"`
}

// GeoCheck reports one geofence evaluation.
type GeoCheck struct {
	GeoConfirmed bool    `json:"geo_confirmed"`
	Session      Session `json:"session"`
}

// SnoozeOutcome reports a snooze acceptance.
type SnoozeOutcome struct {
	PenaltyNotice bool   `json:"penalty_notice"`
	WakeAt        string `json:"wake_at"`
}

// Settings is the read-only settings view.
type Settings struct {
	Use24HourClock    bool `json:"use_24_hour_clock"`
	UPIAutoCutAllowed bool `json:"upi_auto_cut_allowed"`
	PenaltyWaived     bool `json:"penalty_waived"`
}

// ListAlarms retrieves every stored alarm.
func (c *Client) ListAlarms(ctx context.Context) ([]Alarm, error) {
	var alarms []Alarm
	if err := c.call(ctx, http.MethodGet, "/v1/alarms", nil, &alarms); err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	return alarms, nil
}

// CreateAlarm stores a new alarm and schedules it when enabled.
func (c *Client) CreateAlarm(ctx context.Context, req *CreateAlarmRequest) (*Alarm, error) {
	var alarm Alarm
	if err := c.call(ctx, http.MethodPost, "/v1/alarms", req, &alarm); err != nil {
		return nil, fmt.Errorf("create alarm: %w", err)
	}

	return &alarm, nil
}

// GetAlarm retrieves one alarm by id.
func (c *Client) GetAlarm(ctx context.Context, id int64) (*Alarm, error) {
	var alarm Alarm
	if err := c.call(ctx, http.MethodGet, alarmPath(id), nil, &alarm); err != nil {
		return nil, fmt.Errorf("get alarm: %w", err)
	}

	return &alarm, nil
}

// DeleteAlarm removes an alarm and cancels its pending trigger.
func (c *Client) DeleteAlarm(ctx context.Context, id int64) error {
	if err := c.call(ctx, http.MethodDelete, alarmPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete alarm: %w", err)
	}

	return nil
}

// EnableAlarm turns an alarm on and registers its next trigger.
func (c *Client) EnableAlarm(ctx context.Context, id int64) (*Alarm, error) {
	var alarm Alarm
	if err := c.call(ctx, http.MethodPost, alarmPath(id)+"/enable", nil, &alarm); err != nil {
		return nil, fmt.Errorf("enable alarm: %w", err)
	}

	return &alarm, nil
}

// DisableAlarm turns an alarm off and cancels its pending trigger.
func (c *Client) DisableAlarm(ctx context.Context, id int64) (*Alarm, error) {
	var alarm Alarm
	if err := c.call(ctx, http.MethodPost, alarmPath(id)+"/disable", nil, &alarm); err != nil {
		return nil, fmt.Errorf("disable alarm: %w", err)
	}

	return &alarm, nil
}

// ListTones retrieves the tone pool.
func (c *Client) ListTones(ctx context.Context) ([]ToneRecord, error) {
	var tones []ToneRecord
	if err := c.call(ctx, http.MethodGet, "/v1/tones", nil, &tones); err != nil {
		return nil, fmt.Errorf("list tones: %w", err)
	}

	return tones, nil
}

// RegisterTone adds an audio file to the tone pool.
func (c *Client) RegisterTone(ctx context.Context, path, kind string) (*ToneRecord, error) {
	body := map[string]string{"path": path, "kind": kind}

	var record ToneRecord
	if err := c.call(ctx, http.MethodPost, "/v1/tones", body, &record); err != nil {
		return nil, fmt.Errorf("register tone: %w", err)
	}

	return &record, nil
}

// ListSessions retrieves every live ring session.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := c.call(ctx, http.MethodGet, "/v1/sessions", nil, &sessions); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

// ConfirmFace reports a face confirmation for a session.
func (c *Client) ConfirmFace(ctx context.Context, episodeID string) (*Session, error) {
	var session Session
	if err := c.call(ctx, http.MethodPost, sessionPath(episodeID, "face"), nil, &session); err != nil {
		return nil, fmt.Errorf("confirm face: %w", err)
	}

	return &session, nil
}

// AddSteps reports walked steps for a session.
func (c *Client) AddSteps(ctx context.Context, episodeID string, steps int) (*Session, error) {
	body := map[string]int{"steps": steps}

	var session Session
	if err := c.call(ctx, http.MethodPost, sessionPath(episodeID, "steps"), body, &session); err != nil {
		return nil, fmt.Errorf("add steps: %w", err)
	}

	return &session, nil
}

// CheckGeo reports the current position for a session's geofence check.
func (c *Client) CheckGeo(ctx context.Context, episodeID string, point GeoPoint) (*GeoCheck, error) {
	var check GeoCheck
	if err := c.call(ctx, http.MethodPost, sessionPath(episodeID, "geo"), point, &check); err != nil {
		return nil, fmt.Errorf("check geo: %w", err)
	}

	return &check, nil
}

// Dismiss attempts to end a ringing session. The daemon refuses with a
// conflict while unlock conditions are unmet; see IsConflict.
func (c *Client) Dismiss(ctx context.Context, episodeID string) (*Session, error) {
	var session Session
	if err := c.call(ctx, http.MethodPost, sessionPath(episodeID, "dismiss"), nil, &session); err != nil {
		return nil, fmt.Errorf("dismiss: %w", err)
	}

	return &session, nil
}

// Snooze postpones a ringing session by the daemon's snooze interval.
func (c *Client) Snooze(ctx context.Context, episodeID string) (*SnoozeOutcome, error) {
	var outcome SnoozeOutcome
	if err := c.call(ctx, http.MethodPost, sessionPath(episodeID, "snooze"), nil, &outcome); err != nil {
		return nil, fmt.Errorf("snooze: %w", err)
	}

	return &outcome, nil
}

// GetSettings retrieves the daemon's user settings block.
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	var settings Settings
	if err := c.call(ctx, http.MethodGet, "/v1/settings", nil, &settings); err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	return &settings, nil
}

// Health probes the daemon's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if err := c.call(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	return nil
}

func alarmPath(id int64) string {
	return "/v1/alarms/" + strconv.FormatInt(id, 10)
}

func sessionPath(episodeID, action string) string {
	return "/v1/sessions/" + episodeID + "/" + action
}

// call performs one API request and decodes the response into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", version.UserAgent())

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reach daemon: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// statusError extracts the API's error text from a non-success response.
func statusError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}

	message := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		message = payload.Error
	}

	return &StatusError{Code: resp.StatusCode, Message: message}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
