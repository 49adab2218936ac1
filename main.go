package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/wmsir/take6-all-sub001/auth"
	"github.com/wmsir/take6-all-sub001/configs"
	"github.com/wmsir/take6-all-sub001/crypto"
	"github.com/wmsir/take6-all-sub001/game"
	"github.com/wmsir/take6-all-sub001/migrations"
	"github.com/wmsir/take6-all-sub001/storage"
)

const maxLobbyRooms = 1024

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// .env is optional, real deployments set the environment directly
	godotenv.Load()

	envs, err := configs.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("bad environment")
	}
	if envs.GIN_MODE != "" {
		gin.SetMode(envs.GIN_MODE)
	}

	if err := migrations.Migrate(envs.POSTGRES_URL); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	logger.Info().Msg("migrations applied")

	pgRepo, err := storage.NewPostgresRepo(context.Background(), envs.POSTGRES_URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pgRepo.Close()

	tokenAge := time.Hour * 24 * 7
	passwordHasher := crypto.NewArgon2idHasher(3, 1024*64, 32, 16, 1)
	tokenManager := crypto.NewJWTManager(envs.JWT_KEY, tokenAge)

	authService := auth.NewService(pgRepo, passwordHasher, tokenManager)
	authHandler := auth.NewAuthHandler(authService, tokenAge, logger)

	r := CreateServer([]string{envs.FRONTEND_ORIGIN})
	authHandler.RegisterRoutes(r.Group("/auth"))

	idGen := game.NewIdGen()
	tickerGen := game.NewTickerGen()
	lobby := game.NewLobby(idGen, tickerGen, maxLobbyRooms)

	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyStarted)
	<-lobbyStarted

	gameHandler := game.NewGameHandler(lobby, pgRepo, pgRepo, game.NewScheduler(), logger)
	gameGroup := r.Group("/game")
	gameGroup.Use(authHandler.RequireAuthMiddleware(time.Second * 2))
	gameHandler.RegisterRoutes(gameGroup)

	go func() {
		if err := r.Run(envs.LISTEN_ADDR); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()
	logger.Info().Str("addr", envs.LISTEN_ADDR).Msg("server started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	<-sigCh
	logger.Info().Msg("shutdown signal received")
}
