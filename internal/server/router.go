package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/svcdeck/svcdeck/internal/logtail"
	"github.com/svcdeck/svcdeck/internal/metrics"
	"github.com/svcdeck/svcdeck/internal/orchestrator"
	"github.com/svcdeck/svcdeck/internal/registry"
)

// Router provides embeddable HTTP handlers for the service deck.
// Endpoints under basePath:
//
//	GET    /status            all service statuses
//	GET    /status/:name      one service status
//	POST   /health/:name      run a health check
//	POST   /start/:name       start (with dependencies)
//	POST   /stop/:name        stop by port
//	POST   /restart/:name     stop, wait, start
//	POST   /start-all         batch start, per-service result lines
//	POST   /stop-all          batch stop, per-service result lines
//	POST   /autorestart/:name?enabled=true|false
//	GET    /logs/:name?lines=N  tail of the service log
//	DELETE /logs/:name        truncate the service log
//
// GET /metrics is served at the root regardless of basePath.
type Router struct {
	orch     *orchestrator.Orchestrator
	reg      *registry.Registry
	basePath string
}

// NewRouter constructs a Router with a configurable basePath.
// Example basePath: "/api" results in /api/status, /api/start/:name, ...
func NewRouter(orch *orchestrator.Orchestrator, reg *registry.Registry, basePath string) *Router {
	return &Router{orch: orch, reg: reg, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatusAll)
	group.GET("/status/:name", r.handleStatus)
	group.POST("/health/:name", r.handleHealth)
	group.POST("/start/:name", r.handleStart)
	group.POST("/stop/:name", r.handleStop)
	group.POST("/restart/:name", r.handleRestart)
	group.POST("/start-all", r.handleStartAll)
	group.POST("/stop-all", r.handleStopAll)
	group.POST("/autorestart/:name", r.handleAutoRestart)
	group.GET("/logs/:name", r.handleLogsTail)
	group.DELETE("/logs/:name", r.handleLogsClear)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, orch *orchestrator.Orchestrator, reg *registry.Registry) (*http.Server, error) {
	r := NewRouter(orch, reg, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

// writeError maps unknown-service lookups to 404 and everything else to 500.
func writeError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, registry.ErrNotFound) {
		code = http.StatusNotFound
	}
	writeJSON(c, code, errorResp{Error: err.Error()})
}

func (r *Router) handleStatusAll(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.orch.StatusAll())
}

func (r *Router) handleStatus(c *gin.Context) {
	st, err := r.orch.Status(c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, st)
}

func (r *Router) handleHealth(c *gin.Context) {
	v, err := r.orch.CheckHealth(c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"health": v})
}

func (r *Router) handleStart(c *gin.Context) {
	if err := r.orch.Start(c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStop(c *gin.Context) {
	stopped, err := r.orch.Stop(c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"ok": true, "stopped": stopped})
}

func (r *Router) handleRestart(c *gin.Context) {
	if err := r.orch.Restart(c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStartAll(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"results": r.orch.StartAll()})
}

func (r *Router) handleStopAll(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"results": r.orch.StopAll()})
}

func (r *Router) handleAutoRestart(c *gin.Context) {
	enabled, err := strconv.ParseBool(c.Query("enabled"))
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "enabled must be true or false"})
		return
	}
	if err := r.orch.SetAutoRestart(c.Param("name"), enabled); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleLogsTail(c *gin.Context) {
	name := c.Param("name")
	cfg, err := r.reg.Get(name)
	if err != nil {
		writeError(c, err)
		return
	}
	lines := 100
	if s := c.Query("lines"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "lines must be a non-negative integer"})
			return
		}
		lines = n
	}
	if cfg.LogPath == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "no log_path configured for " + name})
		return
	}
	entries, err := logtail.Tail(cfg.LogPath, name, lines)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, entries)
}

func (r *Router) handleLogsClear(c *gin.Context) {
	name := c.Param("name")
	cfg, err := r.reg.Get(name)
	if err != nil {
		writeError(c, err)
		return
	}
	if cfg.LogPath == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "no log_path configured for " + name})
		return
	}
	if err := logtail.Truncate(cfg.LogPath); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}
