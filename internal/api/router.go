// Package api is the HTTP surface of the quote service.
package api

import (
	"context"
	"net/http"
	"time"

	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/contact"
	"omerhsa-quotes/internal/content"
	"omerhsa-quotes/internal/quote"
	"omerhsa-quotes/internal/session"
	"omerhsa-quotes/internal/site"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	SessionCookie  string
	CookieSecure   bool
	SessionTTL     time.Duration
	TrustedProxies []string

	Quotes   *quote.Service
	Sessions *session.Manager
	Content  *content.Service
	Contact  *contact.Service
	Site     *site.Directory
	// Ready reports whether backing stores are reachable.
	Ready  func(ctx context.Context) error
	Logger logger.Logger
}

type Server struct {
	opts   Options
	logger logger.Logger
}

func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.SessionCookie == "" {
		opts.SessionCookie = "omerhsa_session"
	}
	s := &Server{opts: opts, logger: opts.Logger.WithFields(map[string]interface{}{"component": "api"})}

	r := gin.New()
	_ = r.SetTrustedProxies(opts.TrustedProxies)
	r.Use(gin.Recovery())
	r.Use(TraceIDMiddleware())
	r.Use(AccessLogMiddleware(s.logger))

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	apiGroup.Use(SessionMiddleware(opts.Sessions, opts.SessionCookie, opts.CookieSecure, opts.SessionTTL, s.logger))
	apiGroup.Use(GateMiddleware(opts.Sessions, "/api/session", "/api/session/login", "/api/session/preloader"))

	sessionGroup := apiGroup.Group("/session")
	sessionGroup.GET("", s.getSession)
	sessionGroup.POST("/login", s.login)
	sessionGroup.POST("/logout", s.logout)
	sessionGroup.POST("/preloader", s.preloaderSeen)

	quoteGroup := apiGroup.Group("/quote")
	quoteGroup.POST("", s.startQuote)
	quoteGroup.GET("", s.getQuote)
	quoteGroup.DELETE("", s.abandonQuote)
	quoteGroup.POST("/insurance", s.selectInsurance)
	quoteGroup.PATCH("/fields", s.setFields)
	quoteGroup.POST("/next", s.nextStep)
	quoteGroup.POST("/back", s.backStep)
	quoteGroup.POST("/submit", s.submitQuote)

	apiGroup.GET("/content/:kind", s.listContent)
	apiGroup.POST("/contact", s.submitContact)

	siteGroup := apiGroup.Group("/site")
	siteGroup.GET("", s.siteInfo)
	siteGroup.GET("/insurers", s.insurers)
	siteGroup.GET("/faq", s.faq)
	siteGroup.GET("/insurance-options", s.insuranceOptions)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) ready(c *gin.Context) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := s.opts.Ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
