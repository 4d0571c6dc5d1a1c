package http_picker

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	http_common "github.com/coplay/gamenight/core/internal/delivery/http/common"
	"github.com/coplay/gamenight/core/internal/model"
	usecase_picker "github.com/coplay/gamenight/core/internal/usecase/picker"
)

type Controller struct {
	uc     *usecase_picker.Usecase
	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(uc *usecase_picker.Usecase, opts ...ControllerOption) *Controller {
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
	groups := router.Group("/groups")
	{
		groups.POST("/common-games", c.commonGames)
	}
}

// CommonGamesRequestDTO
type CommonGamesRequestDTO struct {
	Users      []string `json:"users" binding:"required,min=1"`
	CoopOnly   bool     `json:"coop_only"`
	MaxPlayers int      `json:"max_players"`

	// Sample, when positive, returns only that many randomly picked games
	// from the intersection, ready to seed a voting session.
	Sample int `json:"sample"`
}

// CommonGamesResponseDTO
type CommonGamesResponseDTO struct {
	Games []model.GameRecord `json:"games"`
	Total int                `json:"total"`
}

// @Summary Compute the group's common games
// @Description Intersects the libraries of all given users, drops games every participant ignores, and optionally samples a shortlist
// @Tags Groups
// @Accept json
// @Produce json
// @Param request body CommonGamesRequestDTO true "Participants and filters"
// @Success 200 {object} CommonGamesResponseDTO "Common games"
// @Failure 400 {object} http_common.ErrorResponse "Invalid request"
// @Failure 502 {object} http_common.ErrorResponse "A library provider failed"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /groups/common-games [post]
func (c *Controller) commonGames(ctx *gin.Context) {
	var req CommonGamesRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	games, err := c.uc.CommonGames(ctx, req.Users, usecase_picker.IntersectOptions{
		CoopOnly:   req.CoopOnly,
		MaxPlayers: req.MaxPlayers,
	})
	if err != nil {
		c.logger.Error("failed to compute common games",
			slog.Any("users", req.Users),
			slog.String("error", err.Error()))
		if errors.Is(err, usecase_picker.ErrProviderFailed) {
			ctx.JSON(http.StatusBadGateway, http_common.ErrorResponse{
				Message: "a library provider failed, try again",
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	total := len(games)
	if req.Sample > 0 {
		games = usecase_picker.SampleCandidates(games, req.Sample)
	}

	ctx.JSON(http.StatusOK, CommonGamesResponseDTO{
		Games: games,
		Total: total,
	})
}
