package http_voting

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	http_common "github.com/coplay/gamenight/core/internal/delivery/http/common"
	ws_session "github.com/coplay/gamenight/core/internal/delivery/ws/session"
	"github.com/coplay/gamenight/core/internal/model"
	usecase_voting "github.com/coplay/gamenight/core/internal/usecase/voting"
)

// Notifier fans the picked game out to the configured webhooks.
type Notifier interface {
	NotifyGamePicked(ctx context.Context, sessionID string, game model.GameRecord) map[string]bool
}

type Controller struct {
	registry *usecase_voting.Registry
	hub      *ws_session.Hub
	notifier Notifier

	defaultDuration time.Duration
	logger          *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithDefaultDuration(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.defaultDuration = d
		}
	}
}

func New(registry *usecase_voting.Registry, hub *ws_session.Hub, notifier Notifier, opts ...ControllerOption) *Controller {
	c := &Controller{
		registry:        registry,
		hub:             hub,
		notifier:        notifier,
		defaultDuration: 5 * time.Minute,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	{
		sessions.POST("", c.create)
		sessions.GET("/:session_id", c.get)
		sessions.POST("/:session_id/votes", c.vote)
		sessions.GET("/:session_id/results", c.results)
		sessions.POST("/:session_id/close", c.close)
	}
}

// CreateSessionRequestDTO
type CreateSessionRequestDTO struct {
	// Candidates in shortlist order; the order doubles as tie-break
	// priority when the session closes.
	Candidates      []model.GameRecord `json:"candidates" binding:"required"`
	Voters          []string           `json:"voters" binding:"required"`
	DurationSeconds int                `json:"duration_seconds"`
}

// CreateSessionResponseDTO
type CreateSessionResponseDTO struct {
	SessionID string `json:"session_id"`
}

// @Summary Open a voting session
// @Description Creates a time-bounded poll over a fixed shortlist and voter roster
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body CreateSessionRequestDTO true "Shortlist, roster and duration"
// @Success 201 {object} CreateSessionResponseDTO "Session opened"
// @Failure 400 {object} http_common.ErrorResponse "Invalid shortlist, roster or duration"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /sessions [post]
func (c *Controller) create(ctx *gin.Context) {
	var req CreateSessionRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	duration := c.defaultDuration
	if req.DurationSeconds > 0 {
		duration = time.Duration(req.DurationSeconds) * time.Second
	}

	session, err := c.registry.Create(req.Candidates, req.Voters, duration)
	if err != nil {
		if errors.Is(err, usecase_voting.ErrInvalidInput) {
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: err.Error(),
			})
			return
		}
		c.logger.Error("failed to create session", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusCreated, CreateSessionResponseDTO{
		SessionID: session.ID(),
	})
}

// @Summary Session state
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session id"
// @Success 200 {object} usecase_voting.SessionState "Session snapshot"
// @Failure 404 {object} http_common.ErrorResponse "Unknown session"
// @Router /sessions/{session_id} [get]
func (c *Controller) get(ctx *gin.Context) {
	session, ok := c.lookup(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, session.Snapshot())
}

// VoteRequestDTO
type VoteRequestDTO struct {
	Voter string `json:"voter" binding:"required"`
	AppID string `json:"app_id" binding:"required"`
}

// VoteResponseDTO
type VoteResponseDTO struct {
	Recorded bool               `json:"recorded"`
	Reason   model.RejectReason `json:"reason,omitempty"`
}

// @Summary Cast a vote
// @Description Records a voter's choice; re-voting before close overwrites the prior choice
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session_id path string true "Session id"
// @Param request body VoteRequestDTO true "Voter and chosen game"
// @Success 200 {object} VoteResponseDTO "Vote recorded"
// @Failure 404 {object} http_common.ErrorResponse "Unknown session"
// @Failure 409 {object} VoteResponseDTO "Vote rejected, see reason"
// @Router /sessions/{session_id}/votes [post]
func (c *Controller) vote(ctx *gin.Context) {
	session, ok := c.lookup(ctx)
	if !ok {
		return
	}

	var req VoteRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	outcome := session.CastVote(req.Voter, req.AppID)
	if !outcome.Recorded {
		ctx.JSON(http.StatusConflict, VoteResponseDTO{
			Recorded: false,
			Reason:   outcome.Reason,
		})
		return
	}

	c.hub.NotifyProgress(session.ID())

	ctx.JSON(http.StatusOK, VoteResponseDTO{Recorded: true})
}

// ResultsResponseDTO
type ResultsResponseDTO struct {
	Tallies map[string]model.Tally `json:"tallies"`
}

// @Summary Vote tallies
// @Description Per-candidate counts and voters; candidates without votes are omitted
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session id"
// @Success 200 {object} ResultsResponseDTO "Tallies"
// @Failure 404 {object} http_common.ErrorResponse "Unknown session"
// @Router /sessions/{session_id}/results [get]
func (c *Controller) results(ctx *gin.Context) {
	session, ok := c.lookup(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, ResultsResponseDTO{Tallies: session.Results()})
}

// CloseResponseDTO
type CloseResponseDTO struct {
	Winner *model.GameRecord `json:"winner"`
}

// @Summary Close a session
// @Description Closes the poll and returns the winner; null when nobody voted. Idempotent.
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session id"
// @Success 200 {object} CloseResponseDTO "Winner, or null without votes"
// @Failure 404 {object} http_common.ErrorResponse "Unknown session"
// @Router /sessions/{session_id}/close [post]
func (c *Controller) close(ctx *gin.Context) {
	session, ok := c.lookup(ctx)
	if !ok {
		return
	}

	winner := session.Close()

	c.hub.NotifyClosed(session.ID(), winner)
	if winner != nil && c.notifier != nil {
		// Fire-and-forget: webhook latency must not hold the response.
		go c.notifier.NotifyGamePicked(context.WithoutCancel(ctx), session.ID(), *winner)
	}

	ctx.JSON(http.StatusOK, CloseResponseDTO{Winner: winner})
}

func (c *Controller) lookup(ctx *gin.Context) (*usecase_voting.Session, bool) {
	sessionID := ctx.Param("session_id")

	session, err := c.registry.Get(sessionID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
		return nil, false
	}
	return session, true
}
