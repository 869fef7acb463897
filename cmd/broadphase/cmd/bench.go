package cmd

import (
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arxos/broadphase/internal/spatial"
)

var benchShapeCount int

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare query latency across all six BroadPhaseKind implementations",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchShapeCount, "shapes", 5000, "number of spheres to populate per kind")
}

var benchKinds = []spatial.BroadPhaseKind{
	spatial.KindSpatialHashBP,
	spatial.KindGridSAP,
	spatial.KindMBP,
	spatial.KindOctreeBP,
	spatial.KindBVHBP,
	spatial.KindDBVTBP,
}

func runBench(c *cobra.Command, args []string) error {
	r := rand.New(rand.NewSource(1))
	centers := make([]spatial.Vec3, benchShapeCount)
	for i := range centers {
		centers[i] = spatial.Vec3{
			X: r.Float32()*1000 - 500,
			Y: r.Float32()*1000 - 500,
			Z: r.Float32()*1000 - 500,
		}
	}
	aabbs := make([]spatial.AABB, benchShapeCount)
	one := spatial.Vec3{X: 1, Y: 1, Z: 1}
	for i, c := range centers {
		aabbs[i] = spatial.AABB{Min: c.Sub(one), Max: c.Add(one)}
	}

	q := spatial.AABB{Min: spatial.Vec3{X: -100, Y: -100, Z: -100}, Max: spatial.Vec3{X: 100, Y: 100, Z: 100}}
	out := make([]uint32, benchShapeCount)

	for _, kind := range benchKinds {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.BroadPhaseKind = kind

		bp, err := spatial.New(kind, cfg, nil)
		if err != nil {
			return err
		}
		for i, a := range aabbs {
			bp.Add(uint32(i), a)
		}

		const iterations = 100
		start := time.Now()
		for i := 0; i < iterations; i++ {
			bp.Query(q, out, aabbs)
		}
		elapsed := time.Since(start)

		logger.Info("bench result",
			zap.String("kind", string(kind)),
			zap.Int("shapes", benchShapeCount),
			zap.Duration("per_query", elapsed/iterations),
		)
	}
	return nil
}
