package app

import (
	"context"
	"log/slog"

	"github.com/coplay/gamenight/core/internal/config"
	http_init "github.com/coplay/gamenight/core/internal/delivery/http/init"
	http_picker "github.com/coplay/gamenight/core/internal/delivery/http/picker"
	http_roster "github.com/coplay/gamenight/core/internal/delivery/http/roster"
	http_voting "github.com/coplay/gamenight/core/internal/delivery/http/voting"
	ws_session "github.com/coplay/gamenight/core/internal/delivery/ws/session"
	infra_pg_init "github.com/coplay/gamenight/core/internal/infra/postgres/init"
	infra_postgres_ignores "github.com/coplay/gamenight/core/internal/infra/postgres/ignores"
	infra_postgres_users "github.com/coplay/gamenight/core/internal/infra/postgres/users"
	infra_redis_init "github.com/coplay/gamenight/core/internal/infra/redis/init"
	infra_library_cache "github.com/coplay/gamenight/core/internal/infra/redis/librarycache"
	infra_steam "github.com/coplay/gamenight/core/internal/infra/steam"
	service_library "github.com/coplay/gamenight/core/internal/service/library"
	service_notifier "github.com/coplay/gamenight/core/internal/service/notifier"
	usecase_picker "github.com/coplay/gamenight/core/internal/usecase/picker"
	usecase_roster "github.com/coplay/gamenight/core/internal/usecase/roster"
	usecase_voting "github.com/coplay/gamenight/core/internal/usecase/voting"
)

func Go(cfg *config.Config) {
	logger := slog.Default()

	redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
	pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)

	userRepository := infra_postgres_users.New(pgConn)
	ignoreRepository := infra_postgres_ignores.New(pgConn)

	steamClient := infra_steam.New(cfg.Steam)
	libraryCache := infra_library_cache.New(redisConn, "library_cache", cfg.Redis.LibraryTTL)
	libraryService := service_library.New(userRepository, steamClient, libraryCache,
		service_library.WithLogger(logger))

	pickerUC := usecase_picker.New(libraryService, ignoreRepository)
	rosterUC := usecase_roster.New(userRepository, ignoreRepository)

	registry := usecase_voting.NewRegistry(
		usecase_voting.WithRetention(cfg.Sessions.Retention),
		usecase_voting.WithLogger(logger),
	)
	go registry.RunSweeper(context.Background(), cfg.Sessions.SweepTick)

	hub := ws_session.NewHub(registry, logger)
	go hub.Run()

	notifier := service_notifier.New(cfg.Webhooks, service_notifier.WithLogger(logger))

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_picker.New(pickerUC, http_picker.WithLogger(logger)))
	controllerPool.Add(http_roster.New(rosterUC, http_roster.WithLogger(logger)))
	controllerPool.Add(http_voting.New(registry, hub, notifier,
		http_voting.WithLogger(logger),
		http_voting.WithDefaultDuration(cfg.Sessions.DefaultDuration)))

	controllerPool.Register()

	wsController := ws_session.NewController(hub, registry, logger)
	wsController.RegisterRoutes(controllerPool.Engine().Group("/"))

	controllerPool.RunAll(cfg.HTTP.Port)
}
