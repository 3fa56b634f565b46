package api

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts every endpoint on r.
func RegisterRoutes(r gin.IRouter, matches *MatchHandler, subs *SubscriptionHandler, extractions *ExtractionHandler) {
	r.GET("/", Banner)
	r.GET("/health", Health)

	r.GET("/api/matches", matches.ListMatches)
	r.POST("/api/matches/refresh", matches.RefreshMatches)

	r.GET("/api/subscriptions", subs.ListSubscriptions)
	r.POST("/api/subscriptions", subs.Subscribe)
	r.DELETE("/api/subscriptions/:user_id", subs.Unsubscribe)

	r.GET("/api/extractions", extractions.ListRuns)
}
