package cmd

import (
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arxos/broadphase/internal/spatial"
	"github.com/arxos/broadphase/internal/spatialworld"
)

var (
	demoShapeCount int
	demoSeed       int64
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Build a world of random spheres and run a sample raycast",
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().IntVar(&demoShapeCount, "shapes", 1000, "number of spheres to populate")
	demoCmd.Flags().Int64Var(&demoSeed, "seed", 1, "random seed for shape placement")
}

func runDemo(c *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	metrics := spatial.NewMetrics(nil)

	w, err := spatialworld.NewWorld(cfg, logger, metrics)
	if err != nil {
		return err
	}

	r := rand.New(rand.NewSource(demoSeed))
	for i := 0; i < demoShapeCount; i++ {
		center := spatial.Vec3{
			X: r.Float32()*1000 - 500,
			Y: r.Float32()*1000 - 500,
			Z: r.Float32()*1000 - 500,
		}
		if _, err := w.AddSphere(center, 1, 0, 0); err != nil {
			logger.Warn("demo insert failed", zap.Error(err))
			break
		}
	}
	logger.Info("world populated", zap.Int("shapes", w.Count()), zap.String("kind", string(cfg.BroadPhaseKind)))

	q := spatialworld.NewRayQuery(spatial.Vec3{}, spatial.Vec3{X: 1}, 1000)
	out := make([]spatialworld.RaycastHit, 16)
	n := w.Raycast(q, out)

	logger.Info("raycast complete", zap.Int("hits", n))
	for i := 0; i < n; i++ {
		logger.Info("hit", zap.Uint32("index", out[i].Index), zap.Float32("distance", out[i].Distance))
	}
	return nil
}
