// Package server exposes the aggregation manager over HTTP. This is the
// boundary the magazine front-end consumes; partial platform failures
// surface inside response bodies, never as 5xx responses.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/cityzenmag/socialhub/aggregator"
	"github.com/cityzenmag/socialhub/cache"
	"github.com/cityzenmag/socialhub/model"
	"github.com/cityzenmag/socialhub/platform"
)

// Server wires the manager and optional post cache behind a gin engine.
type Server struct {
	mgr    *aggregator.Manager
	cache  *cache.PostCache
	engine *gin.Engine
}

// New builds the HTTP surface. postCache may be nil.
func New(mgr *aggregator.Manager, postCache *cache.PostCache) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(), cors.Default())

	s := &Server{mgr: mgr, cache: postCache, engine: engine}
	s.routes()
	return s
}

// Engine returns the underlying gin engine, used by tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Msg("HTTP server starting")
	return s.engine.Run(addr)
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/platforms", s.handlePlatforms)
	api.GET("/posts", s.handleAggregatedPosts)
	api.GET("/posts/all", s.handleAllPosts)
	api.POST("/publish", s.handlePublish)
	api.GET("/analytics", s.handleAnalytics)
	api.GET("/status", s.handleStatus)
	api.POST("/sync", s.handleSync)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"platforms": len(s.mgr.EnabledPlatforms()),
	})
}

func (s *Server) handlePlatforms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"platforms": s.mgr.EnabledPlatforms()})
}

func (s *Server) handleAggregatedPosts(c *gin.Context) {
	opts := fetchOptionsFromQuery(c)

	cacheKey := "posts:" + c.Request.URL.RawQuery
	if posts, ok := s.cache.Get(c.Request.Context(), cacheKey); ok {
		c.JSON(http.StatusOK, gin.H{"posts": posts, "cached": true})
		return
	}

	posts := s.mgr.FetchAggregatedPosts(c.Request.Context(), opts)
	s.cache.Set(c.Request.Context(), cacheKey, posts)
	c.JSON(http.StatusOK, gin.H{"posts": posts, "cached": false})
}

func (s *Server) handleAllPosts(c *gin.Context) {
	opts := fetchOptionsFromQuery(c)
	byPlatform := s.mgr.FetchAllPosts(c.Request.Context(), opts)
	c.JSON(http.StatusOK, gin.H{
		"posts":  byPlatform,
		"status": s.mgr.SyncStatuses(c.Request.Context()),
	})
}

type publishRequest struct {
	Platforms []model.Platform `json:"platforms" binding:"required"`
	Text      string           `json:"text" binding:"required"`
	MediaURLs []string         `json:"media_urls"`
	Hashtags  []string         `json:"hashtags"`
	Mentions  []string         `json:"mentions"`
	ReplyTo   string           `json:"reply_to"`
}

type publishOutcome struct {
	Post  *model.UnifiedPost `json:"post,omitempty"`
	Error string             `json:"error,omitempty"`
	Kind  string             `json:"kind,omitempty"`
}

func (s *Server) handlePublish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content := model.PostContent{
		Text:      req.Text,
		MediaURLs: req.MediaURLs,
		Hashtags:  req.Hashtags,
		Mentions:  req.Mentions,
		ReplyTo:   req.ReplyTo,
	}

	results := s.mgr.PublishToMany(c.Request.Context(), req.Platforms, content)
	out := make(map[model.Platform]publishOutcome, len(results))
	for p, result := range results {
		if result.Err != nil {
			out[p] = publishOutcome{
				Error: result.Err.Error(),
				Kind:  string(platform.KindOf(result.Err)),
			}
			continue
		}
		out[p] = publishOutcome{Post: result.Post}
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

func (s *Server) handleAnalytics(c *gin.Context) {
	period := model.Period(c.DefaultQuery("period", string(model.PeriodWeek)))

	analytics, err := s.mgr.Analytics(c.Request.Context(), period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (s *Server) handleStatus(c *gin.Context) {
	resp := gin.H{
		"status":    s.mgr.SyncStatuses(c.Request.Context()),
		"last_sync": s.mgr.LastSync(),
	}
	if c.Query("probe") == "1" {
		resp["connections"] = s.mgr.TestConnections(c.Request.Context())
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSync(c *gin.Context) {
	s.mgr.SyncAll(c.Request.Context(), fetchOptionsFromQuery(c))
	c.JSON(http.StatusOK, gin.H{"status": s.mgr.SyncStatuses(c.Request.Context())})
}

func fetchOptionsFromQuery(c *gin.Context) model.FetchOptions {
	opts := model.FetchOptions{
		Hashtag: c.Query("hashtag"),
		Mention: c.Query("mention"),
		Cursor:  c.Query("cursor"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		opts.Limit = limit
	}
	if since, err := time.Parse(time.RFC3339, c.Query("since")); err == nil {
		opts.Since = since
	}
	if until, err := time.Parse(time.RFC3339, c.Query("until")); err == nil {
		opts.Until = until
	}
	if c.Query("include_replies") == "1" {
		opts.IncludeReplies = true
	}
	if c.Query("include_retweets") == "1" {
		opts.IncludeRetweets = true
	}
	if sortBy := c.Query("sort_by"); sortBy != "" {
		opts.SortBy = model.SortOrder(sortBy)
	}
	return opts
}
