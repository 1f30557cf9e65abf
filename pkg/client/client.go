// Package client is a Go client for the live draft service. It speaks the
// JSON HTTP API for every mutation and read, and exposes the websocket
// signal stream that tells a client when to re-fetch. All methods are safe
// for concurrent use.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Client calls one draft service. Identity rides on every request: UserID
// becomes X-User-Id, DisplayName becomes X-Display-Name. Anonymous captains
// leave UserID nil and are recognized by name alone.
type Client struct {
	baseURL     string
	http        *http.Client
	userID      *uuid.UUID
	displayName string
}

type Option func(*Client)

// WithHTTPClient substitutes the transport, e.g. for timeouts or proxies.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithUser authenticates every request as the given user.
func WithUser(id uuid.UUID) Option {
	return func(c *Client) { c.userID = &id }
}

// WithDisplayName sets the device's remembered name, which is how anonymous
// captains prove themselves.
func WithDisplayName(name string) Option {
	return func(c *Client) { c.displayName = name }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a non-2xx response decoded from the service's error envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("draft service: %s (http %d)", e.Message, e.Status)
}

// IsNotFound reports whether err is an APIError for a missing resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return asAPIError(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsConflict reports whether err is an APIError for a lost race: a taken
// slot, a stale action, a wrong-state transition.
func IsConflict(err error) bool {
	var apiErr *APIError
	return asAPIError(err, &apiErr) && apiErr.Status == http.StatusConflict
}

func asAPIError(err error, target **APIError) bool {
	e, ok := err.(*APIError)
	if !ok {
		return false
	}
	*target = e
	return true
}

// do runs one request. out may be nil for endpoints that answer 204.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != nil {
		req.Header.Set("X-User-Id", c.userID.String())
	}
	if c.displayName != "" {
		req.Header.Set("X-Display-Name", c.displayName)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == "" {
			envelope.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: envelope.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sessionPath(sessionID uuid.UUID, rest string) string {
	return "/api/sessions/" + sessionID.String() + rest
}

func (c *Client) CreateSession(ctx context.Context, p CreateSessionParams) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions", p, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SessionByInvite resolves an invite token to its session.
func (c *Client) SessionByInvite(ctx context.Context, token string) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodGet, "/api/invites/"+token, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Snapshot(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	var snap Snapshot
	if err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "/"), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, sessionPath(sessionID, "/"), nil, nil)
}

// Role reports what the service takes this client for, given its identity
// headers.
func (c *Client) Role(ctx context.Context, sessionID uuid.UUID) (Role, error) {
	var out struct {
		Role Role `json:"role"`
	}
	if err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "/role"), nil, &out); err != nil {
		return "", err
	}
	return out.Role, nil
}

// JoinCaptain claims a team's captain slot. displayName may be empty when
// the client already carries one via WithDisplayName.
func (c *Client) JoinCaptain(ctx context.Context, sessionID uuid.UUID, team Team, displayName string) error {
	body := map[string]string{}
	if displayName != "" {
		body["displayName"] = displayName
	}
	return c.do(ctx, http.MethodPost, sessionPath(sessionID, "/captains/"+string(team)), body, nil)
}

func (c *Client) LeaveCaptain(ctx context.Context, sessionID uuid.UUID, team Team) error {
	return c.do(ctx, http.MethodDelete, sessionPath(sessionID, "/captains/"+string(team)), nil, nil)
}

func (c *Client) SwitchTeam(ctx context.Context, sessionID uuid.UUID, from, to Team) error {
	return c.do(ctx, http.MethodPost, sessionPath(sessionID, "/captains/"+string(from)+"/switch"),
		map[string]string{"to": string(to)}, nil)
}

func (c *Client) SelectSide(ctx context.Context, sessionID uuid.UUID, team Team, side Side) error {
	return c.do(ctx, http.MethodPut, sessionPath(sessionID, "/captains/"+string(team)+"/side"),
		map[string]string{"side": string(side)}, nil)
}

func (c *Client) SetReady(ctx context.Context, sessionID uuid.UUID, team Team, ready bool) error {
	return c.do(ctx, http.MethodPut, sessionPath(sessionID, "/captains/"+string(team)+"/ready"),
		map[string]bool{"ready": ready}, nil)
}

func (c *Client) Start(ctx context.Context, sessionID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, sessionPath(sessionID, "/start"), nil, nil)
}

// SubmitAction performs one pick or ban and returns the game as the service
// now sees it.
func (c *Client) SubmitAction(ctx context.Context, sessionID uuid.UUID, p SubmitActionParams) (*Game, error) {
	var g Game
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/actions"), p, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// SubmitTimeout asks the service to lock in a random legal champion from the
// pool for the current turn. Captains call this when the advisory timer runs
// out.
func (c *Client) SubmitTimeout(ctx context.Context, sessionID uuid.UUID, pool []string) (*Game, error) {
	var g Game
	err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/actions/timeout"),
		map[string][]string{"pool": pool}, &g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) Pause(ctx context.Context, sessionID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, sessionPath(sessionID, "/pause"), nil, nil)
}

func (c *Client) Resume(ctx context.Context, sessionID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, sessionPath(sessionID, "/resume"), nil, nil)
}

func (c *Client) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, sessionPath(sessionID, "/cancel"), nil, nil)
}

func gamePath(sessionID uuid.UUID, gameNumber int, rest string) string {
	return sessionPath(sessionID, "/games/"+strconv.Itoa(gameNumber)+rest)
}

func (c *Client) EditPick(ctx context.Context, sessionID uuid.UUID, gameNumber int, p EditPickParams) error {
	return c.do(ctx, http.MethodPost, gamePath(sessionID, gameNumber, "/edits"), p, nil)
}

func (c *Client) FinishEditing(ctx context.Context, sessionID uuid.UUID, gameNumber int) error {
	return c.do(ctx, http.MethodPost, gamePath(sessionID, gameNumber, "/finish-editing"), nil, nil)
}

func (c *Client) SetWinner(ctx context.Context, sessionID uuid.UUID, gameNumber int, winner Side) error {
	return c.do(ctx, http.MethodPut, gamePath(sessionID, gameNumber, "/winner"),
		map[string]string{"winner": string(winner)}, nil)
}

// JoinSpectator registers a view-only participant. The returned row's ID is
// the credential for Heartbeat, Leave, and presence tracking on the signal
// stream.
func (c *Client) JoinSpectator(ctx context.Context, sessionID uuid.UUID, displayName string) (*Participant, error) {
	body := map[string]string{}
	if displayName != "" {
		body["displayName"] = displayName
	}
	var p Participant
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/spectators"), body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Leave(ctx context.Context, sessionID, participantID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, sessionPath(sessionID, "/participants/"+participantID.String()), nil, nil)
}

func (c *Client) Heartbeat(ctx context.Context, sessionID, participantID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, sessionPath(sessionID, "/participants/"+participantID.String()+"/heartbeat"), nil, nil)
}

// Messages returns up to limit recent chat lines, oldest first. limit <= 0
// uses the service default.
func (c *Client) Messages(ctx context.Context, sessionID uuid.UUID, limit int) ([]Message, error) {
	path := sessionPath(sessionID, "/messages")
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var msgs []Message
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) PostMessage(ctx context.Context, sessionID uuid.UUID, content string) (*Message, error) {
	var m Message
	err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/messages"),
		map[string]string{"content": content}, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
