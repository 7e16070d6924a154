package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calendar-agent-poc/server/internal/agent/graph"
)

type routerDeps struct {
	runner   graph.Runner
	auth     Authenticator
	gatherer prometheus.Gatherer
}

func initRouter(g *gin.Engine, deps *routerDeps) {
	installMiddleware(g)
	installController(g, deps)
}

func installMiddleware(g *gin.Engine) {
	g.Use(gin.Recovery())
	g.Use(requestLogger())
}

func installController(g *gin.Engine, deps *routerDeps) {
	g.GET("/healthz", health)

	if deps.gatherer != nil {
		g.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.gatherer, promhttp.HandlerOpts{})))
	}

	if deps.auth != nil {
		oauth := newOAuthHandler(deps.auth)
		g.GET("/auth", oauth.Auth)
		g.GET("/callback", oauth.Callback)
	}

	if deps.runner != nil {
		chat := newChatHandler(deps.runner)
		apiV1 := g.Group("/v1")
		{
			apiV1.POST("/chat", chat.Chat)
			apiV1.DELETE("/threads/:id", chat.Reset)
		}
	}
}
