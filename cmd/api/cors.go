package main

import (
	"time"

	"leetcode-dash/internal/api"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// corsMiddleware lets the dashboard origins call the gateway with
// credentials, so upstream cookies relayed by /graphql-proxy stick.
func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Authorization",
			"Content-Type",
			"Accept",
			"Origin",
			"X-Requested-With",
			api.RequestIDHeader,
		},
		ExposeHeaders: []string{
			api.RequestIDHeader,
			"X-Data-Stale",
			"X-Data-Fetched-At",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
