package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Mesh/internal/adapters/signal"
	"github.com/dkeye/Mesh/internal/app/orch"
	"github.com/dkeye/Mesh/internal/config"
	handlers "github.com/dkeye/Mesh/internal/transport/http"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenSessionKey = "ct"

// ClientTokenMiddleware gives every browser a stable token kept in the
// cookie session. Connection ids stay per-connection; the token only ties
// log lines of reconnecting clients together.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenSessionKey).(string)
		if token == "" {
			token = uuid.NewString()
			session.Set(clientTokenSessionKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set(signal.ClientTokenKey, token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("MeshSessions", store))
	r.Use(ClientTokenMiddleware())

	h := handlers.NewHandlers(o.Registry, cfg.WebRTCICEServers())
	r.GET("/ping", h.Ping)
	r.GET("/healthz", h.Health)

	ctrl := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		PongWait:       cfg.PongWait,
		WriteWait:      cfg.WriteWait,
		SendBuffer:     cfg.SendBuffer,
		AllowedOrigins: cfg.AllowedOrigins,
		ChatLimit:      cfg.Chat.Limit,
		ChatInterval:   cfg.Chat.Interval,
	})
	ws := func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	}
	r.GET("/ws", ws)

	api := r.Group("/api")
	api.GET("/rooms", h.Rooms)
	api.GET("/ice-servers", h.ICEServers)
	api.GET("/ws/signal", ws)

	// Client bundle.
	r.Static("/static", cfg.StaticPath)
	r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticPath))))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
