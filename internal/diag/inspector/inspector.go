// Package inspector is the diagnostics HTTP server cmd/composedemo
// mounts: frame stats, a slot table dump, and the host's invalidation
// log, read back over plain JSON for a developer poking at curl or a
// small dashboard. It is not part of the core per spec.md §1 ("a
// high-level widget library, a renderer, a host/platform
// integration... are out of scope") — the core never imports this
// package — but some HTTP surface is needed to exercise the
// Host/backend API end-to-end, and the teacher builds every such
// surface on gin.
//
// Grounded on the teacher's cmd/zmux-server/main.go route wiring and
// internal/http/middleware/request_id.go for the request-id
// middleware.
package inspector

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/samoylenkodmitry/compose-runtime/internal/diag"
	"github.com/samoylenkodmitry/compose-runtime/internal/hostapi"
	"github.com/samoylenkodmitry/compose-runtime/internal/modifiernode"
	"github.com/samoylenkodmitry/compose-runtime/internal/scheduler"
	"github.com/samoylenkodmitry/compose-runtime/internal/slottable"
)

// RequestIDHeader is the header the middleware reads and sets, exactly
// matching the teacher's internal/http/middleware/request_id.go.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the gin context key the generated/forwarded id is
// stored under.
const RequestIDKey = "request_id"

// RequestID is the teacher's request-id middleware, unchanged in
// behavior: forward an inbound X-Request-ID, or mint a fresh uuid.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// ZapLogger mirrors cmd/zmux-server/main.go's ZapLogger middleware:
// one structured log line per request, leveled by response status.
func ZapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.String("request_id", requestIDOf(c)),
		}
		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func requestIDOf(c *gin.Context) string {
	v, _ := c.Get(RequestIDKey)
	s, _ := v.(string)
	return s
}

// FrameStats is a frame counter and summary of its last RunFrame call,
// updated by the demo host after every frame.
type FrameStats struct {
	mu sync.Mutex

	frame     uint64
	lastError string
	touched   []uint64
}

// RecordFrame updates the stats after a RunFrame call; err is nil on
// success.
func (s *FrameStats) RecordFrame(touched []uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame++
	s.touched = touched
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}

func (s *FrameStats) snapshot() (uint64, string, []uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.lastError, s.touched
}

// Server wires the inspector's routes onto an existing gin.Engine
// (cmd/composedemo owns Recovery/CORS/secure headers; this package
// only contributes the diagnostics routes themselves and the
// request-id/logging middleware they're grouped under).
type Server struct {
	table *slottable.Table
	sched *scheduler.Recomposer
	host  *hostapi.FakeHost
	stats *FrameStats
	log   *zap.Logger
}

// New constructs a Server reading from table/sched/host/stats. Any of
// these may be nil; routes touching a nil dependency report 503
// rather than panicking.
func New(table *slottable.Table, sched *scheduler.Recomposer, host *hostapi.FakeHost, stats *FrameStats, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{table: table, sched: sched, host: host, stats: stats, log: log.Named("inspector")}
}

// Mount registers the inspector's routes (under /debug) on r, along
// with request-id and zap-logging middleware scoped to that group.
func (s *Server) Mount(r *gin.Engine) {
	group := r.Group("/debug", RequestID(), ZapLogger(s.log))
	group.GET("/ping", s.handlePing)
	group.GET("/frame", s.handleFrame)
	group.GET("/slots", s.handleSlots)
	group.GET("/invalidations", s.handleInvalidations)
	group.GET("/chain/:nodeId", s.handleChain)
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (s *Server) handleFrame(c *gin.Context) {
	if s.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "no frame stats wired"})
		return
	}
	frame, lastError, touched := s.stats.snapshot()
	c.JSON(http.StatusOK, gin.H{
		"frame":      frame,
		"last_error": lastError,
		"touched":    touched,
	})
}

func (s *Server) handleSlots(c *gin.Context) {
	if s.table == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "no slot table wired"})
		return
	}
	if diag.Enabled() {
		c.String(http.StatusOK, diag.DumpTable(s.table))
		return
	}
	rows := make([]slottable.Slot, s.table.Len())
	for i := range rows {
		rows[i] = s.table.SlotAt(i)
	}
	c.JSON(http.StatusOK, gin.H{"cursor": s.table.Cursor(), "slots": rows})
}

func (s *Server) handleInvalidations(c *gin.Context) {
	if s.host == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "no host wired"})
		return
	}
	c.Header("X-Total-Count", itoa(len(s.host.Invalidations)))
	c.JSON(http.StatusOK, s.host.Invalidations)
}

func (s *Server) handleChain(c *gin.Context) {
	if s.sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "no scheduler wired"})
		return
	}
	id, err := parseNodeID(c.Param("nodeId"))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid node id"})
		return
	}
	chain, ok := s.sched.ChainFor(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "no reconciled chain for that node id"})
		return
	}
	if diag.Enabled() {
		c.String(http.StatusOK, dumpChain(chain))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"node_id":      id,
		"length":       chain.Len(),
		"capabilities": uint8(chain.AggregatedCapabilities()),
	})
}

func dumpChain(chain *modifiernode.Chain) string { return diag.DumpChain(chain) }

func parseNodeID(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) }

func itoa(n int) string { return strconv.Itoa(n) }
