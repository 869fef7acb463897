package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arxos/broadphase/internal/introspect"
	"github.com/arxos/broadphase/internal/spatial"
	"github.com/arxos/broadphase/internal/spatialworld"
)

var (
	serveAddr        string
	serveStreamHz    float64
	serveShapeCount  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Launch the introspection debug server over a demo world",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().Float64Var(&serveStreamHz, "stream-hz", 2, "websocket stream broadcast rate")
	serveCmd.Flags().IntVar(&serveShapeCount, "shapes", 1000, "number of spheres to populate in the demo world")
}

func runServe(c *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w, err := spatialworld.NewWorld(cfg, logger, spatial.NewMetrics(nil))
	if err != nil {
		return err
	}
	for i := 0; i < serveShapeCount; i++ {
		center := spatial.Vec3{X: float32(i % 100), Y: 0, Z: float32(i / 100)}
		if _, err := w.AddSphere(center, 1, 0, 0); err != nil {
			break
		}
	}

	srv := introspect.NewServer(logger, rate.Limit(serveStreamHz))
	id := srv.Register(w, string(cfg.BroadPhaseKind))
	logger.Info("world registered", zap.String("world_id", id), zap.String("addr", serveAddr))

	return srv.Router().Run(serveAddr)
}
