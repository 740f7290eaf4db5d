// Package server exposes the functions over a plain HTTP server for local
// development, where no API Gateway or Lambda runtime is available.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ecohunt/serverless-backend/internal/api"
	"github.com/ecohunt/serverless-backend/internal/httpx"
	"github.com/ecohunt/serverless-backend/internal/metrics"
)

const (
	PathValidate    = api.PathValidate
	PathUploads     = api.PathUploads
	PathSubmissions = api.PathSubmissions
)

// Setup builds the gin engine.
func Setup(h *Handler, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log), cors(), prometheusMiddleware())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.POST(PathValidate, h.Validate)
	r.POST(PathUploads, h.CreateUpload)
	r.GET(PathSubmissions, h.ListSubmissions)
	return r
}

// cors mirrors the hosted function's CORS policy and answers pre-flight.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		for k, v := range httpx.CORSHeaders() {
			c.Header(k, v)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method+" "+path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}
