package main

import (
	"context"
	"net/http"
	"time"

	"leetcode-dash/internal/api"

	"github.com/gin-gonic/gin"
)

func (app *app) routes() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery(), api.RequestID(), api.RequestLogger(app.logger))
	g.Use(corsMiddleware(app.config.Server.AllowedOrigins))

	timeout := app.config.Server.HandlerTimeout
	h := app.handlers

	health := g.Group("/health")
	{
		health.GET("", healthHandler)
	}

	g.POST("/graphql-proxy", withTimeout(timeout, h.Proxy))
	g.GET("/status", withTimeout(timeout, h.Status))

	session := g.Group("")
	if app.config.Clerk.SecretKey != "" {
		session.Use(api.RequireOperator(app.logger))
	}
	{
		session.POST("/login", h.Login)
		session.POST("/logout", h.Logout)
	}

	users := g.Group("/api")
	{
		users.GET("/daily", withTimeout(timeout, h.Daily))
		users.GET("/users/:username", withTimeout(timeout, h.UserData))
		users.GET("/users/:username/submissions.xml", withTimeout(timeout, h.SubmissionsFeed))
	}

	return g
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func withTimeout(d time.Duration, fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		fn(c)
	}
}
