package spatial

import (
	"strings"

	"github.com/spf13/viper"
)

// AxisMode selects the primary (and optional secondary) sweep axis for
// Grid+SAP's per-zone Sweep-and-Prune lists.
type AxisMode string

const (
	AxisX  AxisMode = "x"
	AxisZ  AxisMode = "z"
	AxisXZ AxisMode = "xz"
)

// Config holds every option the façade recognizes for constructing a
// broad-phase instance. It mirrors the teacher's viper + mapstructure
// configuration style.
type Config struct {
	BroadPhaseKind      BroadPhaseKind `mapstructure:"broad_phase_kind"`
	WorldBounds         AABB           `mapstructure:"world_bounds"`
	CellSize            float32        `mapstructure:"cell_size"`
	GridSize            float32        `mapstructure:"grid_size"`
	RegionsX            uint32         `mapstructure:"regions_x"`
	RegionsZ            uint32         `mapstructure:"regions_z"`
	MaxDepth            uint32         `mapstructure:"max_depth"`
	UseSAH              bool           `mapstructure:"use_sah"`
	FatMargin           float32        `mapstructure:"fat_margin"`
	MaxShapes           uint32         `mapstructure:"max_shapes"`
	BruteForceThreshold int            `mapstructure:"brute_force_threshold"`
	AxisMode            AxisMode       `mapstructure:"axis_mode"`

	// BVHCacheEntries sizes a ristretto-backed query cache layered above
	// the BVH kind (see internal/spatial/bvhcache). Zero disables it. It
	// has no effect for any other BroadPhaseKind.
	BVHCacheEntries int64 `mapstructure:"bvh_cache_entries"`
}

// DefaultConfig returns the configuration defaults documented in the spec.
func DefaultConfig() Config {
	return Config{
		BroadPhaseKind:      KindDBVTBP,
		WorldBounds:         AABB{Min: Vec3{-1000, -1000, -1000}, Max: Vec3{1000, 1000, 1000}},
		CellSize:            4,
		GridSize:            16,
		RegionsX:            8,
		RegionsZ:            8,
		MaxDepth:            8,
		UseSAH:              true,
		FatMargin:           0.1,
		MaxShapes:           100000,
		BruteForceThreshold: DefaultBruteForceThreshold,
		AxisMode:            AxisX,
		BVHCacheEntries:     4096,
	}
}

// BruteForceThresholdOrDefault returns c.BruteForceThreshold, or the
// package default when unset (zero value).
func (c Config) BruteForceThresholdOrDefault() int {
	if c.BruteForceThreshold <= 0 {
		return DefaultBruteForceThreshold
	}
	return c.BruteForceThreshold
}

// Validate raises ErrInvalidConfiguration for a non-positive cell size, or
// an empty world bounds where the chosen kind requires one (Octree, MBP).
func (c Config) Validate(kind BroadPhaseKind) error {
	switch kind {
	case KindSpatialHashBP:
		if c.CellSize <= 0 {
			return newInvalidConfiguration("cell_size must be positive")
		}
	case KindGridSAP:
		if c.GridSize <= 0 {
			return newInvalidConfiguration("grid_size must be positive")
		}
		switch c.AxisMode {
		case AxisX, AxisZ, AxisXZ:
		default:
			return newInvalidConfiguration("axis_mode must be one of x, z, xz")
		}
	case KindMBP, KindOctreeBP:
		if c.WorldBounds.Max.X <= c.WorldBounds.Min.X ||
			c.WorldBounds.Max.Y <= c.WorldBounds.Min.Y ||
			c.WorldBounds.Max.Z <= c.WorldBounds.Min.Z {
			return newInvalidConfiguration("world_bounds must be non-empty")
		}
		if kind == KindMBP && (c.RegionsX == 0 || c.RegionsZ == 0) {
			return newInvalidConfiguration("regions_x and regions_z must be positive")
		}
	case KindDBVTBP:
		if c.FatMargin < 0 {
			return newInvalidConfiguration("fat_margin must not be negative")
		}
	}
	return nil
}

// LoadConfig reads broad-phase configuration via viper, applying defaults
// first and allowing BROADPHASE_-prefixed environment variables to
// override any field, matching the teacher's configuration loading style.
func LoadConfig(v *viper.Viper) (Config, error) {
	def := DefaultConfig()
	v.SetDefault("broad_phase_kind", def.BroadPhaseKind)
	v.SetDefault("cell_size", def.CellSize)
	v.SetDefault("grid_size", def.GridSize)
	v.SetDefault("regions_x", def.RegionsX)
	v.SetDefault("regions_z", def.RegionsZ)
	v.SetDefault("max_depth", def.MaxDepth)
	v.SetDefault("use_sah", def.UseSAH)
	v.SetDefault("fat_margin", def.FatMargin)
	v.SetDefault("max_shapes", def.MaxShapes)
	v.SetDefault("brute_force_threshold", def.BruteForceThreshold)
	v.SetDefault("axis_mode", def.AxisMode)
	v.SetDefault("bvh_cache_entries", def.BVHCacheEntries)

	v.SetEnvPrefix("broadphase")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, newInvalidConfiguration(err.Error())
	}
	if cfg.WorldBounds == (AABB{}) {
		cfg.WorldBounds = def.WorldBounds
	}
	return cfg, cfg.Validate(cfg.BroadPhaseKind)
}
