// Package introspect is a strictly additive debug server over one or more
// spatialworld.World instances: a gin-routed REST endpoint for point-in-time
// stats, and a websocket stream for watching them change live. Nothing in
// internal/spatial or internal/spatialworld depends on this package — the
// core stays single-threaded and I/O-free, matching spec.md §5.
package introspect

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arxos/broadphase/internal/spatialworld"
)

// WorldStats is the JSON snapshot returned by the stats endpoint and
// streamed over the websocket.
type WorldStats struct {
	WorldID        string `json:"world_id"`
	ShapeCount     int    `json:"shape_count"`
	BroadPhaseKind string `json:"broad_phase_kind"`
}

type registeredWorld struct {
	id    string
	world *spatialworld.World
	kind  string
}

// Server exposes read-only introspection over every world registered with
// it. Registration and lookup are the only mutable state; it never touches
// a World's registry or broad phase beyond reading Count().
type Server struct {
	mu     sync.RWMutex
	worlds map[string]*registeredWorld

	logger     *zap.Logger
	upgrader   websocket.Upgrader
	streamRate rate.Limit
}

// NewServer builds a Server. streamRate bounds how often the websocket
// stream pushes a new snapshot per connected client, mirroring the
// teacher's per-precision UpdateRate throttle in its viewport manager.
func NewServer(logger *zap.Logger, streamRate rate.Limit) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		worlds: make(map[string]*registeredWorld),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		streamRate: streamRate,
	}
}

// Register adds w under a freshly minted id and returns it.
func (s *Server) Register(w *spatialworld.World, kind string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.worlds[id] = &registeredWorld{id: id, world: w, kind: kind}
	s.mu.Unlock()
	return id
}

// Unregister drops a previously registered world.
func (s *Server) Unregister(id string) {
	s.mu.Lock()
	delete(s.worlds, id)
	s.mu.Unlock()
}

func (s *Server) lookup(id string) (*registeredWorld, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rw, ok := s.worlds[id]
	return rw, ok
}

func statsOf(rw *registeredWorld) WorldStats {
	return WorldStats{WorldID: rw.id, ShapeCount: rw.world.Count(), BroadPhaseKind: rw.kind}
}

// Router builds the gin engine exposing the debug endpoints.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/worlds/:id/stats", s.handleStats)
	r.GET("/worlds/:id/stream", s.handleStream)
	return r
}

func (s *Server) handleStats(c *gin.Context) {
	rw, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown world"})
		return
	}
	c.JSON(http.StatusOK, statsOf(rw))
}
