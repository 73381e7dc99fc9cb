// Package server exposes the search pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/magnet-finder/internal/logging"
	"github.com/litescript/magnet-finder/internal/magnet"
	"github.com/litescript/magnet-finder/internal/scraper"
	"github.com/litescript/magnet-finder/internal/version"
)

// Searcher runs one search. *scraper.Pipeline satisfies it.
type Searcher interface {
	Trace(ctx context.Context, q scraper.Query) scraper.Outcome
}

// Handler wires HTTP routes to the searcher.
type Handler struct {
	searcher Searcher
	trackers []string
	gatherer prometheus.Gatherer
}

func NewHandler(s Searcher, trackers []string, g prometheus.Gatherer) *Handler {
	return &Handler{searcher: s, trackers: trackers, gatherer: g}
}

// Router builds a gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	h.RegisterRoutes(router)
	return router
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.GET("/search", h.search)
	}
}

type searchRequest struct {
	Q          string `form:"q" binding:"required"`
	Category   string `form:"category"`
	Resolution string `form:"resolution"`
}

// ResultResponse is one row of a search response.
type ResultResponse struct {
	Title     string  `json:"title"`
	InfoHash  string  `json:"info_hash"`
	Seeders   int     `json:"seeders"`
	Leechers  int     `json:"leechers"`
	Size      int64   `json:"size"`
	Health    int     `json:"health"`
	Tag       string  `json:"tag"`
	Relevance float32 `json:"relevance"`
	Magnet    string  `json:"magnet"`
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Status   string           `json:"status"`
	SearchID string           `json:"search_id"`
	Results  []ResultResponse `json:"results"`
}

func (h *Handler) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	q := scraper.Query{Text: req.Q, Category: scraper.MoviesHD}
	if req.Category != "" {
		cat, err := scraper.ParseCategory(req.Category)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q.Category = cat
	}
	res, err := scraper.ParseResolution(req.Resolution)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q.Resolution = res

	out := h.searcher.Trace(c.Request.Context(), q)
	c.JSON(http.StatusOK, h.toResponse(out))
}

func (h *Handler) toResponse(out scraper.Outcome) SearchResponse {
	resp := SearchResponse{
		Status:   string(out.Status),
		SearchID: out.SearchID,
		Results:  make([]ResultResponse, len(out.Results)),
	}
	for i, r := range out.Results {
		resp.Results[i] = ResultResponse{
			Title:     r.Title,
			InfoHash:  r.InfoHash,
			Seeders:   r.Seeders,
			Leechers:  r.Leechers,
			Size:      r.Size,
			Health:    r.Health(),
			Tag:       r.Tag.String(),
			Relevance: r.Relevance,
			Magnet:    magnet.Build(r.InfoHash, r.Title, h.trackers),
		}
	}
	return resp
}

// requestLogger logs each request, at warn for 4xx and error for 5xx.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Header("Server", version.UserAgent())

		c.Next()

		status := c.Writer.Status()
		event := logging.Info()
		if status >= 500 {
			event = logging.Error()
		} else if status >= 400 {
			event = logging.Warn()
		}

		event = event.
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("duration", time.Since(start))
		if c.Request.URL.RawQuery != "" {
			event = event.Str("query", c.Request.URL.RawQuery)
		}
		event.Msg("request")
	}
}

// Serve runs the router on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h *Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
