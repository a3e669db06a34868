package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
)

type registry interface {
	Register(ctx context.Context, addr string) (string, error)
}

type matchmaker interface {
	Pair(ctx context.Context, playerID string) (entity.GameView, error)
}

type relay interface {
	SubmitMove(ctx context.Context, playerID, gameID, move string) error
	PollOpponentMove(ctx context.Context, playerID, gameID string) (string, error)
	Quit(ctx context.Context, playerID, gameID string) error
	LegalMoves(ctx context.Context, playerID, gameID, cell string) ([]string, error)
}

// Handlers serve the polling protocol. Every call carries the player handle in ?player=
// and, once paired, the game id in ?id=.
type Handlers struct {
	logger     *slog.Logger
	registry   registry
	matchmaker matchmaker
	relay      relay
}

func NewHandlers(logger *slog.Logger, registry registry, matchmaker matchmaker, relay relay) *Handlers {
	return &Handlers{
		logger:     logger.With("component", "handlers"),
		registry:   registry,
		matchmaker: matchmaker,
		relay:      relay,
	}
}

func (that *Handlers) Register(c *gin.Context) {
	handle, err := that.registry.Register(c.Request.Context(), c.Request.RemoteAddr)
	if err != nil {
		that.fail(c, "Register", err)
		return
	}

	c.String(http.StatusOK, handle)
}

func (that *Handlers) Pair(c *gin.Context) {
	player, ok := requireQuery(c, "player")
	if !ok {
		return
	}

	view, err := that.matchmaker.Pair(c.Request.Context(), player)
	if err != nil {
		that.fail(c, "Pair", err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (that *Handlers) SubmitMove(c *gin.Context) {
	player, gameID, ok := requireSession(c)
	if !ok {
		return
	}

	move, ok := requireQuery(c, "move")
	if !ok {
		return
	}

	if err := that.relay.SubmitMove(c.Request.Context(), player, gameID, move); err != nil {
		that.fail(c, "SubmitMove", err)
		return
	}

	c.Status(http.StatusOK)
}

func (that *Handlers) PollOpponentMove(c *gin.Context) {
	player, gameID, ok := requireSession(c)
	if !ok {
		return
	}

	move, err := that.relay.PollOpponentMove(c.Request.Context(), player, gameID)
	if err != nil {
		that.fail(c, "PollOpponentMove", err)
		return
	}

	c.String(http.StatusOK, move)
}

func (that *Handlers) Quit(c *gin.Context) {
	player, gameID, ok := requireSession(c)
	if !ok {
		return
	}

	if err := that.relay.Quit(c.Request.Context(), player, gameID); err != nil {
		that.fail(c, "Quit", err)
		return
	}

	c.Status(http.StatusOK)
}

func (that *Handlers) LegalMoves(c *gin.Context) {
	player, gameID, ok := requireSession(c)
	if !ok {
		return
	}

	cell, ok := requireQuery(c, "cell")
	if !ok {
		return
	}

	cells, err := that.relay.LegalMoves(c.Request.Context(), player, gameID, cell)
	if err != nil {
		that.fail(c, "LegalMoves", err)
		return
	}

	if cells == nil {
		cells = []string{}
	}

	c.JSON(http.StatusOK, cells)
}

func (that *Handlers) fail(c *gin.Context, method string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
		c.String(status, http.StatusText(status))

		return
	}

	that.logger.Debug("request rejected", "method", method, "status", status, "error", err)
	c.String(status, err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrMalformedRequest),
		errors.Is(err, apperror.ErrUnknownPlayer),
		errors.Is(err, apperror.ErrUnknownGame):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotAParticipant):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrInvalidState),
		errors.Is(err, apperror.ErrNotYourTurn):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func requireQuery(c *gin.Context, key string) (string, bool) {
	value := c.Query(key)
	if value == "" {
		c.String(http.StatusBadRequest, "missing parameter: "+key)
		return "", false
	}

	return value, true
}

func requireSession(c *gin.Context) (string, string, bool) {
	player, ok := requireQuery(c, "player")
	if !ok {
		return "", "", false
	}

	gameID, ok := requireQuery(c, "id")
	if !ok {
		return "", "", false
	}

	return player, gameID, true
}
