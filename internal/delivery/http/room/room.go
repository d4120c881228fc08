package http_room

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	http_common "github.com/avbelov/tunehunt/core/internal/delivery/http/common"
	"github.com/avbelov/tunehunt/core/internal/game"
	"github.com/avbelov/tunehunt/core/internal/model"
)

// Controller is the REST read side of the room registry. All mutation
// goes through the WebSocket gateway; these endpoints only serve
// snapshots for lobby pages and monitoring.
type Controller struct {
	registry *game.Registry
	logger   *slog.Logger
}

func New(registry *game.Registry) *Controller {
	return &Controller{
		registry: registry,
		logger:   slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	rooms := router.Group("/rooms")
	{
		rooms.GET("/:room_code", c.state)
		rooms.GET("/:room_code/status", c.status)
	}
	router.GET("/stats", c.stats)
}

func (c *Controller) state(ctx *gin.Context) {
	room, ok := c.registry.Get(model.RoomID(ctx.Param("room_code")))
	if !ok {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
		return
	}

	ctx.JSON(http.StatusOK, room.Snapshot())
}

type StatusResponseDTO struct {
	Phase model.Phase `json:"phase"`
}

func (c *Controller) status(ctx *gin.Context) {
	room, ok := c.registry.Get(model.RoomID(ctx.Param("room_code")))
	if !ok {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
		return
	}

	ctx.JSON(http.StatusOK, StatusResponseDTO{
		Phase: room.Phase(),
	})
}

type StatsResponseDTO struct {
	Rooms int `json:"rooms"`
}

func (c *Controller) stats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, StatsResponseDTO{
		Rooms: c.registry.Len(),
	})
}
