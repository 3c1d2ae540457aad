package http

import (
	"context"
	"path/filepath"

	"github.com/Ayush94-1708/music-glass/internal/adapters/signal"
	"github.com/Ayush94-1708/music-glass/internal/app/orch"
	"github.com/Ayush94-1708/music-glass/internal/auth"
	"github.com/Ayush94-1708/music-glass/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, verifier *auth.Verifier) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("MusicGlassSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticPath, "index.html"))
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{orch: o, iceServers: cfg.ICEServers}
	r.GET("/healthz", h.health)

	ctrl := signal.NewSignalWSController(o,
		signal.NewRoomRateLimiter(cfg.RateLimit.Count, cfg.RateLimit.Interval),
		signal.Options{
			ReadLimit:  cfg.ReadLimit,
			PingPeriod: cfg.PingPeriod,
			PongWait:   cfg.PongWait,
			WriteWait:  cfg.WriteWait,
			SendBuffer: cfg.SendBuffer,
		})

	api := r.Group("/api")
	api.GET("/rooms", h.listRooms)
	api.GET("/rooms/:code", h.getRoom)
	api.GET("/rooms/:code/messages", h.roomMessages)
	api.GET("/rtc/config", h.rtcConfig)

	api.GET("/ws/signal", AuthMiddleware(verifier, cfg.Auth.Required), func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client", c.GetString(signal.CtxClientToken)).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
