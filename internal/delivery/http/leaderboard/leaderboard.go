package http_leaderboard

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	http_common "github.com/avbelov/tunehunt/core/internal/delivery/http/common"
	infra_redis_leaderboard "github.com/avbelov/tunehunt/core/internal/infra/redis/leaderboard"
)

const defaultLimit = 10

type Board interface {
	Top(ctx context.Context, n int) ([]infra_redis_leaderboard.Entry, error)
}

type Controller struct {
	board  Board // nil when redis is not configured
	logger *slog.Logger
}

func New(board Board) *Controller {
	return &Controller{
		board:  board,
		logger: slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/leaderboard", c.top)
}

type TopResponseDTO struct {
	Entries []infra_redis_leaderboard.Entry `json:"entries"`
}

func (c *Controller) top(ctx *gin.Context) {
	if c.board == nil {
		ctx.JSON(http.StatusOK, TopResponseDTO{Entries: []infra_redis_leaderboard.Entry{}})
		return
	}

	limit := defaultLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: "invalid limit",
			})
			return
		}
		limit = n
	}

	entries, err := c.board.Top(ctx, limit)
	if err != nil {
		c.logger.Error("failed to load leaderboard", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, TopResponseDTO{Entries: entries})
}
