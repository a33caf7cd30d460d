package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration as YAML",
	Long:  "Resolve the configuration exactly as 'dcsim run' would (file, defaults and flag overrides) and print every key. The output is a complete config file.",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := loadConfig(cmd, configPath)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if _, err := os.Stdout.Write(cfg.Canonical()); err != nil {
			logrus.Fatalf("Writing configuration failed: %v", err)
		}
	},
}

func init() {
	addSimulationFlags(configCmd)
	configCmd.Flags().Float64Var(&initialFlex, "initial-flex", 0.3, "Flex fraction in force before the first step")
	configCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Controller decision trace level (none, decisions)")
	rootCmd.AddCommand(configCmd)
}
