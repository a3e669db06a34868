// Package client talks to a relay server over its polling protocol.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
)

// WinSignal is the body the server returns to a player whose opponent resigned.
const WinSignal = "You Win"

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultTimeout      = 10 * time.Second
)

var errNotYet = errors.New("not yet")

// StatusError is a non-200 answer from the server.
type StatusError struct {
	Code int
	Body string
}

func (that *StatusError) Error() string {
	return fmt.Sprintf("server answered %d: %s", that.Code, that.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}

type Client struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: defaultTimeout},
		pollInterval: defaultPollInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (that *Client) Register(ctx context.Context) (string, error) {
	return that.get(ctx, "/register", nil)
}

func (that *Client) Pair(ctx context.Context, player string) (entity.GameView, error) {
	body, err := that.get(ctx, "/pairme", url.Values{"player": {player}})
	if err != nil {
		return entity.GameView{}, err
	}

	var view entity.GameView
	if err = json.Unmarshal([]byte(body), &view); err != nil {
		return entity.GameView{}, fmt.Errorf("failed to decode game view: %w", err)
	}

	return view, nil
}

// WaitForGame polls Pair until the player is in a started game.
func (that *Client) WaitForGame(ctx context.Context, player string) (entity.GameView, error) {
	var view entity.GameView

	err := that.poll(ctx, func() error {
		var err error

		view, err = that.Pair(ctx, player)
		if err != nil {
			return err
		}

		if view.State != entity.StatusInProgress {
			return errNotYet
		}

		return nil
	})

	return view, err
}

func (that *Client) SubmitMove(ctx context.Context, player, gameID, move string) error {
	query := session(player, gameID)
	query.Set("move", move)

	_, err := that.get(ctx, "/mymove", query)

	return err
}

// PollOpponentMove returns the opponent's move, "" when there is none yet, or WinSignal.
func (that *Client) PollOpponentMove(ctx context.Context, player, gameID string) (string, error) {
	return that.get(ctx, "/theirmove", session(player, gameID))
}

// WaitForOpponentMove polls until the opponent moves or resigns.
func (that *Client) WaitForOpponentMove(ctx context.Context, player, gameID string) (string, error) {
	var move string

	err := that.poll(ctx, func() error {
		var err error

		move, err = that.PollOpponentMove(ctx, player, gameID)
		if err != nil {
			return err
		}

		if move == "" {
			return errNotYet
		}

		return nil
	})

	return move, err
}

func (that *Client) Quit(ctx context.Context, player, gameID string) error {
	_, err := that.get(ctx, "/quit", session(player, gameID))
	return err
}

func (that *Client) LegalMoves(ctx context.Context, player, gameID, cell string) ([]string, error) {
	query := session(player, gameID)
	query.Set("cell", cell)

	body, err := that.get(ctx, "/legal", query)
	if err != nil {
		return nil, err
	}

	var cells []string
	if err = json.Unmarshal([]byte(body), &cells); err != nil {
		return nil, fmt.Errorf("failed to decode legal moves: %w", err)
	}

	return cells, nil
}

// poll retries op at a constant interval while it reports errNotYet. Any other error stops it.
func (that *Client) poll(ctx context.Context, op func() error) error {
	b := backoff.WithContext(backoff.NewConstantBackOff(that.pollInterval), ctx)

	err := backoff.Retry(func() error {
		err := op()
		if err == nil || errors.Is(err, errNotYet) {
			return err
		}

		return backoff.Permanent(err)
	}, b)
	if err != nil {
		return fmt.Errorf("polling stopped: %w", err)
	}

	return nil
}

func (that *Client) get(ctx context.Context, path string, query url.Values) (string, error) {
	target := that.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := that.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	return string(body), nil
}

func session(player, gameID string) url.Values {
	return url.Values{"player": {player}, "id": {gameID}}
}
