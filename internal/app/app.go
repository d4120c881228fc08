package app

import (
	"log/slog"
	"os"

	"github.com/avbelov/tunehunt/core/internal/catalog"
	"github.com/avbelov/tunehunt/core/internal/config"
	http_init "github.com/avbelov/tunehunt/core/internal/delivery/http/init"
	http_leaderboard "github.com/avbelov/tunehunt/core/internal/delivery/http/leaderboard"
	http_room "github.com/avbelov/tunehunt/core/internal/delivery/http/room"
	ws_game "github.com/avbelov/tunehunt/core/internal/delivery/ws/game"
	"github.com/avbelov/tunehunt/core/internal/game"
	infra_pg_init "github.com/avbelov/tunehunt/core/internal/infra/postgres/init"
	infra_postgres_playlist "github.com/avbelov/tunehunt/core/internal/infra/postgres/playlist"
	infra_redis_init "github.com/avbelov/tunehunt/core/internal/infra/redis/init"
	infra_redis_leaderboard "github.com/avbelov/tunehunt/core/internal/infra/redis/leaderboard"
)

func Go(cfg *config.Config) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Both backends are optional: without Postgres the built-in playlist
	// serves the catalog, without Redis the leaderboard is disabled.
	var provider catalog.Provider = catalog.NewStatic()
	if cfg.Postgres.Host != "" {
		pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)
		provider = infra_postgres_playlist.New(pgConn)
		logger.Info("catalog source: postgres")
	} else {
		logger.Info("catalog source: static playlist")
	}

	var board *infra_redis_leaderboard.Driver
	if cfg.Redis.Host != "" {
		redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
		board = infra_redis_leaderboard.New(redisConn, cfg.Redis.LeaderboardKey)
		logger.Info("leaderboard enabled", "key", cfg.Redis.LeaderboardKey)
	}

	registry := game.NewRegistry()

	var recorder ws_game.Leaderboard
	var reader http_leaderboard.Board
	if board != nil {
		recorder = board
		reader = board
	}
	gateway := ws_game.NewGateway(registry, provider, recorder, logger)

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_room.New(registry))
	controllerPool.Add(http_leaderboard.New(reader))
	controllerPool.Add(ws_game.NewController(gateway))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}
