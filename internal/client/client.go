// Package client keeps a local projection of the shift calendar in sync with
// a running server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shiftsync/backend/internal/domain"
	"github.com/shiftsync/backend/internal/projection"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	dialer     *websocket.Dialer

	Projection *projection.Projection
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		dialer:     websocket.DefaultDialer,
		Projection: projection.New(),
	}
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var res response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if !res.Success {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, res.Message)
	}
	if out != nil {
		return json.Unmarshal(res.Data, out)
	}
	return nil
}

// Login exchanges credentials for an access token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	}, &tokens); err != nil {
		return err
	}

	c.token = tokens.AccessToken
	return nil
}

func (c *Client) Shifts(ctx context.Context) ([]*domain.Shift, error) {
	var shifts []*domain.Shift
	if err := c.do(ctx, http.MethodGet, "/shifts", nil, &shifts); err != nil {
		return nil, err
	}
	return shifts, nil
}

func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Sync subscribes to changes and only then fetches the snapshot, feeding both
// into Projection. onChange runs after every update that changed the
// projection. Sync returns when ctx is done or the connection drops.
func (c *Client) Sync(ctx context.Context, onChange func(*projection.Projection)) error {
	wsURL, err := c.wsURL()
	if err != nil {
		return err
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("subscribe: %s: %w", resp.Status, err)
		}
		return fmt.Errorf("subscribe: %w", err)
	}
	defer conn.Close()

	var mu sync.Mutex
	notify := func(changed bool) {
		if !changed || onChange == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onChange(c.Projection)
	}

	readErr := make(chan error, 1)
	go func() {
		for {
			var event domain.ChangeEvent
			if err := conn.ReadJSON(&event); err != nil {
				readErr <- err
				return
			}
			notify(c.Projection.Apply(event))
		}
	}()

	shifts, err := c.Shifts(ctx)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	notify(c.Projection.ApplySnapshot(shifts))

	select {
	case <-ctx.Done():
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		return nil
	case err := <-readErr:
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}
