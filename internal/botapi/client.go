package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kythia/dashboard-backend/pkg/config"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
	"github.com/kythia/dashboard-backend/pkg/logger"
)

// Client talks to the remote bot process that owns per-guild settings and
// fleet metadata. Read helpers soft-fail: on timeout, non-JSON or non-2xx
// replies they log and return nil so dashboard pages degrade to empty
// states instead of erroring.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	logg    *logger.Logger
}

// NewClient builds a bot-API client from configuration. The HTTP client
// carries the configured timeout so a stalled upstream cannot hold a page
// render hostage.
func NewClient(cfg config.BotAPIConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("bot api base url required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  cfg.Secret,
		http:    &http.Client{Timeout: cfg.Timeout},
		logg:    logg,
	}, nil
}

// Stats fetches the fleet summary. Nil means the upstream was unreachable.
func (c *Client) Stats(ctx context.Context) *Stats {
	var out Stats
	if !c.getJSON(ctx, "/meta/stats", &out) {
		return nil
	}
	return &out
}

// Commands fetches the public command reference. Nil means unreachable.
func (c *Client) Commands(ctx context.Context) *Commands {
	var out Commands
	if !c.getJSON(ctx, "/meta/commands", &out) {
		return nil
	}
	return &out
}

// Changelog fetches the release notes feed. Nil means unreachable.
func (c *Client) Changelog(ctx context.Context) json.RawMessage {
	var out json.RawMessage
	if !c.getJSON(ctx, "/meta/changelog", &out) {
		return nil
	}
	return out
}

// Guilds lists the servers visible to the given user. Nil means unreachable.
func (c *Client) Guilds(ctx context.Context, userID string) []Guild {
	var out []Guild
	if !c.getJSONAs(ctx, "/guilds", userID, &out) {
		return nil
	}
	return out
}

// Guild fetches one server, optionally with the full settings payload.
// Nil means unreachable or unknown.
func (c *Client) Guild(ctx context.Context, userID, guildID string, full bool) *Guild {
	path := "/guilds/" + guildID
	if full {
		path += "?data=all"
	}
	var out Guild
	if !c.getJSONAs(ctx, path, userID, &out) {
		return nil
	}
	return &out
}

// Forward relays an arbitrary dashboard request to the upstream and returns
// its reply verbatim. Unlike the read helpers this is a hard-fail path: an
// unreachable upstream is surfaced as a gateway error.
func (c *Client) Forward(ctx context.Context, method, path, userID string, body []byte) (*ProxyResult, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := c.newRequest(ctx, method, path, userID, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build proxy request")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "Failed to reach Bot API")
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "Failed to reach Bot API")
	}

	return &ProxyResult{Status: res.StatusCode, Body: payload}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) bool {
	return c.getJSONAs(ctx, path, "", out)
}

func (c *Client) getJSONAs(ctx context.Context, path, userID string, out any) bool {
	req, err := c.newRequest(ctx, http.MethodGet, path, userID, nil)
	if err != nil {
		c.logg.Error(ctx, "bot api request build failed", err)
		return false
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "path", path), "bot api unreachable")
		return false
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"path": path, "status": res.StatusCode}), "bot api returned error status")
		return false
	}
	if !strings.Contains(res.Header.Get("Content-Type"), "application/json") {
		c.logg.Warn(c.logg.WithField(ctx, "path", path), "bot api returned non-json reply")
		return false
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "path", path), "bot api reply decode failed")
		return false
	}
	return true
}

func (c *Client) newRequest(ctx context.Context, method, path, userID string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	return req, nil
}
