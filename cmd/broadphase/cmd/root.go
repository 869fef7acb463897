package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/arxos/broadphase/internal/spatial"
)

var (
	cfgFile string
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "broadphase",
	Short: "Exercise the broad-phase spatial indexing core",
	Long:  "broadphase builds and queries a spatial world for interactive exploration, benchmarking, and debugging — it is a demo harness, not a library dependency.",
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(c *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a broadphase config file")
	rootCmd.AddCommand(demoCmd, benchCmd, serveCmd)
}

// loadConfig reads the spatial.Config via viper, honoring --config and
// BROADPHASE_-prefixed environment overrides.
func loadConfig() (spatial.Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return spatial.Config{}, err
		}
	}
	return spatial.LoadConfig(v)
}
