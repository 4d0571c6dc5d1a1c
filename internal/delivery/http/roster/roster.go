package http_roster

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	http_common "github.com/coplay/gamenight/core/internal/delivery/http/common"
	"github.com/coplay/gamenight/core/internal/model"
	usecase_roster "github.com/coplay/gamenight/core/internal/usecase/roster"
)

type Controller struct {
	uc     *usecase_roster.Usecase
	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(uc *usecase_roster.Usecase, opts ...ControllerOption) *Controller {
	c := &Controller{
		uc:     uc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("", c.register)
		users.GET("", c.list)
		users.GET("/:username/ignores", c.ignoredGames)
		users.POST("/:username/ignores/:app_id/toggle", c.toggleIgnore)
	}

	ignores := router.Group("/ignores")
	{
		ignores.GET("/shared", c.sharedIgnores)
	}
}

// RegisterUserRequestDTO
type RegisterUserRequestDTO struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email"`
	DiscordID string `json:"discord_id"`
	SteamID   string `json:"steam_id"`
}

// @Summary Register a user
// @Description Adds a user with their platform account ids
// @Tags Users
// @Accept json
// @Success 201 "User created"
// @Failure 400 {object} http_common.ErrorResponse "Invalid request"
// @Failure 409 {object} http_common.ErrorResponse "Username taken"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /users [post]
func (c *Controller) register(ctx *gin.Context) {
	var req RegisterUserRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	err := c.uc.Register(ctx, model.User{
		ID:        uuid.New(),
		Username:  req.Username,
		Email:     req.Email,
		DiscordID: req.DiscordID,
		SteamID:   req.SteamID,
	})
	if err != nil {
		if errors.Is(err, usecase_roster.ErrAlreadyExists) {
			ctx.JSON(http.StatusConflict, http_common.ErrorResponse{
				Message: "username taken",
			})
			return
		}
		c.logger.Error("failed to register user",
			slog.String("username", req.Username),
			slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.Status(http.StatusCreated)
}

// UsersResponseDTO
type UsersResponseDTO struct {
	Users []model.User `json:"users"`
}

// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {object} UsersResponseDTO "Users"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /users [get]
func (c *Controller) list(ctx *gin.Context) {
	users, err := c.uc.Users(ctx)
	if err != nil {
		c.logger.Error("failed to list users", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, UsersResponseDTO{Users: users})
}

// IgnoredGamesResponseDTO
type IgnoredGamesResponseDTO struct {
	Ignores []model.IgnoreEntry `json:"ignores"`
}

// @Summary List a user's ignored games
// @Tags Users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} IgnoredGamesResponseDTO "Ignore entries"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /users/{username}/ignores [get]
func (c *Controller) ignoredGames(ctx *gin.Context) {
	username := ctx.Param("username")

	entries, err := c.uc.IgnoredGames(ctx, username)
	if err != nil {
		c.logger.Error("failed to load ignored games",
			slog.String("username", username),
			slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, IgnoredGamesResponseDTO{Ignores: entries})
}

// SharedIgnoresResponseDTO
type SharedIgnoresResponseDTO struct {
	AppIDs []string `json:"app_ids"`
}

// @Summary Games every given user ignores
// @Description App ids present on the ignore list of each listed user
// @Tags Users
// @Produce json
// @Param users query []string true "Usernames" collectionFormat(multi)
// @Success 200 {object} SharedIgnoresResponseDTO "Unanimously ignored app ids"
// @Failure 400 {object} http_common.ErrorResponse "No users given"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /ignores/shared [get]
func (c *Controller) sharedIgnores(ctx *gin.Context) {
	users := ctx.QueryArray("users")
	if len(users) == 0 {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "at least one user is required",
		})
		return
	}

	appIDs, err := c.uc.SharedIgnores(ctx, users)
	if err != nil {
		c.logger.Error("failed to load shared ignores",
			slog.Any("users", users),
			slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, SharedIgnoresResponseDTO{AppIDs: appIDs})
}

// ToggleIgnoreRequestDTO
type ToggleIgnoreRequestDTO struct {
	GameName string `json:"game_name"`
	Reason   string `json:"reason"`
}

// ToggleIgnoreResponseDTO
type ToggleIgnoreResponseDTO struct {
	Ignored bool `json:"ignored"`
}

// @Summary Toggle an ignore mark
// @Description Ignores the game for the user, or un-ignores it when already ignored
// @Tags Users
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param app_id path string true "Game app id"
// @Success 200 {object} ToggleIgnoreResponseDTO "State after the toggle"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /users/{username}/ignores/{app_id}/toggle [post]
func (c *Controller) toggleIgnore(ctx *gin.Context) {
	username := ctx.Param("username")
	appID := ctx.Param("app_id")

	var req ToggleIgnoreRequestDTO
	// Body is optional; an empty one means no name or reason recorded.
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	ignored, err := c.uc.ToggleIgnore(ctx, model.IgnoreEntry{
		Username:  username,
		AppID:     appID,
		GameName:  req.GameName,
		Reason:    req.Reason,
		CreatedAt: time.Now(),
	})
	if err != nil {
		c.logger.Error("failed to toggle ignore",
			slog.String("username", username),
			slog.String("app_id", appID),
			slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, ToggleIgnoreResponseDTO{Ignored: ignored})
}
