// Package spatialworld is the external façade over internal/spatial: it
// owns a registry and one active broad phase, and turns shape-level CRUD
// and higher-level spatial queries into the index-and-AABB operations the
// core actually understands.
package spatialworld

import (
	"go.uber.org/zap"

	"github.com/arxos/broadphase/internal/spatial"
	"github.com/arxos/broadphase/internal/spatial/bvhcache"
)

// AllMask is the default layer mask: every bit set.
const AllMask uint32 = 0xFFFFFFFF

// World owns one registry and one broad phase and is the unit of
// parallelism: multiple Worlds may run concurrently, each single-threaded
// internally.
type World struct {
	registry *spatial.Registry
	driver   *spatial.Driver
	bp       spatial.BroadPhase
	cfg      spatial.Config
	logger   *zap.Logger
	metrics  *spatial.Metrics

	scratch []uint32
}

// NewWorld constructs a World backed by the broad phase named in cfg.
// logger and metrics may both be nil.
func NewWorld(cfg spatial.Config, logger *zap.Logger, metrics *spatial.Metrics) (*World, error) {
	bp, err := spatial.New(cfg.BroadPhaseKind, cfg, metrics)
	if err != nil {
		return nil, err
	}
	// The BVH kind is the only index with a monotonic generation counter,
	// which is what lets a cache sit safely above Query (see bvhcache's
	// package doc): a cache hit can never be less current than the
	// generation it was stored under.
	if cfg.BroadPhaseKind == spatial.KindBVHBP && cfg.BVHCacheEntries > 0 {
		if bvh, ok := bp.(*spatial.BVH); ok {
			cached, err := bvhcache.New(bvh, cfg.BVHCacheEntries)
			if err != nil {
				return nil, err
			}
			bp = cached
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("spatial world constructed",
		zap.String("broad_phase_kind", string(cfg.BroadPhaseKind)),
		zap.Int("brute_force_threshold", cfg.BruteForceThresholdOrDefault()),
		zap.Uint32("max_shapes", cfg.MaxShapes),
	)

	reg := spatial.NewRegistry()
	return &World{
		registry: reg,
		driver:   spatial.NewDriver(reg, bp, metrics),
		bp:       bp,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

func (w *World) atCapacity() bool {
	return w.cfg.MaxShapes > 0 && uint32(w.registry.Count()) >= w.cfg.MaxShapes
}

func (w *World) insert(kind spatial.Kind, params spatial.ShapeParams, mask uint32, tag int32) (spatial.Handle, error) {
	if w.atCapacity() {
		w.metrics.IncInsertFailed()
		w.logger.Warn("insert dropped: registry at max_shapes", zap.Uint32("max_shapes", w.cfg.MaxShapes))
		err := (&spatial.SpatialError{Type: spatial.ErrOutOfCapacity, Message: "registry at max_shapes"}).
			WithDetail("max_shapes", w.cfg.MaxShapes)
		return spatial.Handle{}, err
	}
	h := w.registry.Add(kind, params, mask, tag)
	_, _, aabb, _, _, _ := w.registry.Get(h)
	w.driver.Add(h.Index, aabb)
	return h, nil
}

func resolveMask(mask uint32) uint32 {
	if mask == 0 {
		return AllMask
	}
	return mask
}

// AddSphere registers a sphere shape. mask == 0 is treated as AllMask.
func (w *World) AddSphere(center spatial.Vec3, radius float32, mask uint32, tag int32) (spatial.Handle, error) {
	return w.insert(spatial.KindSphere, spatial.ShapeParams{Center: center, Radius: radius}, resolveMask(mask), tag)
}

// AddCapsule registers a capsule shape from endpoint p1 to p2.
func (w *World) AddCapsule(p1, p2 spatial.Vec3, radius float32, mask uint32, tag int32) (spatial.Handle, error) {
	return w.insert(spatial.KindCapsule, spatial.ShapeParams{P1: p1, P2: p2, Radius: radius}, resolveMask(mask), tag)
}

// AddCylinder registers a Y-aligned cylinder with its base at center.
func (w *World) AddCylinder(center spatial.Vec3, height, radius float32, mask uint32, tag int32) (spatial.Handle, error) {
	return w.insert(spatial.KindCylinder, spatial.ShapeParams{Center: center, Height: height, Radius: radius}, resolveMask(mask), tag)
}

// AddBox registers a box yawed by yaw radians about Y.
func (w *World) AddBox(center, halfExtents spatial.Vec3, yaw float32, mask uint32, tag int32) (spatial.Handle, error) {
	return w.insert(spatial.KindBox, spatial.ShapeParams{Center: center, HalfExtents: halfExtents, Yaw: yaw}, resolveMask(mask), tag)
}

// update recomputes h's AABB from newParams and forwards the old/new pair
// to the driver's active broad phase.
func (w *World) update(h spatial.Handle, newParams spatial.ShapeParams) error {
	oldAABB, newAABB, err := w.registry.Update(h, newParams)
	if err != nil {
		return err
	}
	w.driver.Update(h.Index, oldAABB, newAABB)
	return nil
}

// UpdateSphere moves/resizes the sphere named by h.
func (w *World) UpdateSphere(h spatial.Handle, center spatial.Vec3, radius float32) error {
	return w.update(h, spatial.ShapeParams{Center: center, Radius: radius})
}

// UpdateCapsule moves/resizes the capsule named by h.
func (w *World) UpdateCapsule(h spatial.Handle, p1, p2 spatial.Vec3, radius float32) error {
	return w.update(h, spatial.ShapeParams{P1: p1, P2: p2, Radius: radius})
}

// UpdateCylinder moves/resizes the cylinder named by h.
func (w *World) UpdateCylinder(h spatial.Handle, center spatial.Vec3, height, radius float32) error {
	return w.update(h, spatial.ShapeParams{Center: center, Height: height, Radius: radius})
}

// UpdateBox moves/resizes/reyaws the box named by h.
func (w *World) UpdateBox(h spatial.Handle, center, halfExtents spatial.Vec3, yaw float32) error {
	return w.update(h, spatial.ShapeParams{Center: center, HalfExtents: halfExtents, Yaw: yaw})
}

// Remove destroys the shape named by h. Returns false if h was already
// stale.
func (w *World) Remove(h spatial.Handle) bool {
	ok := w.registry.Remove(h)
	if ok {
		w.driver.Remove(h.Index)
	}
	return ok
}

// Count returns the number of currently live shapes.
func (w *World) Count() int { return w.registry.Count() }

// Registry exposes the underlying registry read-only view, for callers
// (such as the introspection server) that need kind/params/tag detail
// beyond what the query methods return.
func (w *World) Registry() *spatial.Registry { return w.registry }

func (w *World) candidateBuffer(n int) []uint32 {
	if cap(w.scratch) < n {
		w.scratch = make([]uint32, n)
	}
	return w.scratch[:n]
}
