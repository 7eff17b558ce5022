package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/beacon/internal/adapters/signal"
	"github.com/dkeye/beacon/internal/app"
	"github.com/dkeye/beacon/internal/auth"
	"github.com/dkeye/beacon/internal/config"
)

// API bundles everything the HTTP surface needs.
type API struct {
	Calls    *app.Calls
	Signals  *app.SignalStore
	Presence *app.Presence
	Verifier auth.Verifier
	ICEUrls  []string
}

func SetupRouter(ctx context.Context, cfg *config.Config, api *API, ws *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	// The socket authenticates itself from the token query param.
	r.GET("/api/ws", func(c *gin.Context) {
		ws.HandleWS(ctx, c)
	})

	authed := r.Group("/api", AuthRequired(api.Verifier))
	{
		authed.POST("/calls", api.createCall)
		authed.GET("/calls/:id", api.getCall)
		authed.PUT("/calls/:id", api.updateCall)

		authed.POST("/signaling", api.writeSignal)
		authed.GET("/signaling", api.readSignal)
		authed.DELETE("/signaling", api.deleteSignal)

		authed.GET("/webrtc/config", api.iceConfig)
		authed.GET("/presence", api.presenceSnapshot)
	}

	return r
}
