package rest

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the relay protocol and the operational endpoints.
func NewRouter(logger *slog.Logger, h *Handlers, health *HealthHandler) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	r.Use(countRequests())
	r.Use(cors())
	r.Use(getOnly())

	r.GET("/register", h.Register)
	r.GET("/pairme", h.Pair)
	r.GET("/mymove", h.SubmitMove)
	r.GET("/theirmove", h.PollOpponentMove)
	r.GET("/quit", h.Quit)
	r.GET("/legal", h.LegalMoves)

	r.GET("/ping", health.Ping)
	r.GET("/health", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
