package spatial

// BroadPhase is the contract every acceleration structure satisfies. An
// implementation never owns shape geometry: it is indexed by shape index
// and always re-tests against allAABBs (the registry's view) before
// emitting a candidate, because some implementations store fattened or
// bucket-bound surrogate boxes rather than the true shape AABB.
type BroadPhase interface {
	// Add registers index i with world AABB aabb.
	Add(i uint32, aabb AABB)

	// Remove unregisters index i. Returns false if i was not registered.
	Remove(i uint32) bool

	// Update moves index i from oldAABB to newAABB.
	Update(i uint32, oldAABB, newAABB AABB)

	// Query writes every candidate index whose stored bound intersects q
	// into out (truncating, never erroring, if out is too small) and
	// returns the count written. allAABBs is used for the final per-
	// candidate AABB test.
	Query(q AABB, out []uint32, allAABBs []AABB) int

	// Clear removes every registration.
	Clear()

	// Count returns the number of currently registered indices.
	Count() int
}

// BroadPhaseKind identifies one of the six interchangeable broad-phase structures.
type BroadPhaseKind string

const (
	KindSpatialHashBP BroadPhaseKind = "spatial_hash"
	KindGridSAP       BroadPhaseKind = "grid_sap"
	KindMBP           BroadPhaseKind = "mbp"
	KindOctreeBP      BroadPhaseKind = "octree"
	KindBVHBP         BroadPhaseKind = "bvh"
	KindDBVTBP        BroadPhaseKind = "dbvt"
)

// New constructs the broad-phase implementation named by kind using cfg.
// metrics may be nil; when given, it's wired into the implementation's
// brute-force-fallback counter.
func New(kind BroadPhaseKind, cfg Config, metrics *Metrics) (BroadPhase, error) {
	if err := cfg.Validate(kind); err != nil {
		return nil, err
	}
	switch kind {
	case KindSpatialHashBP:
		return NewSpatialHash(cfg.CellSize, cfg.BruteForceThresholdOrDefault(), metrics), nil
	case KindGridSAP:
		return NewGridSAP(cfg.GridSize, cfg.AxisMode, cfg.BruteForceThresholdOrDefault(), metrics), nil
	case KindMBP:
		return NewMBP(cfg.WorldBounds, cfg.RegionsX, cfg.RegionsZ, cfg.BruteForceThresholdOrDefault(), metrics), nil
	case KindOctreeBP:
		return NewOctree(cfg.WorldBounds, cfg.MaxDepth, cfg.BruteForceThresholdOrDefault(), metrics), nil
	case KindBVHBP:
		return NewBVH(cfg.UseSAH, cfg.BruteForceThresholdOrDefault(), metrics), nil
	case KindDBVTBP:
		return NewDBVT(cfg.FatMargin, cfg.BruteForceThresholdOrDefault(), metrics), nil
	default:
		return nil, newInvalidConfiguration("unknown broad_phase_kind: " + string(kind))
	}
}
