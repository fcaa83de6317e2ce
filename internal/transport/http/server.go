package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/okravchenko/tidechat-server/internal/auth"
	"github.com/okravchenko/tidechat-server/internal/config"
	"github.com/okravchenko/tidechat-server/internal/core"
)

// NewServer builds the HTTP server hosting the realtime endpoint.
func NewServer(hub *core.Hub, gate *auth.Gate, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, gate, cfg, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
