package cmd

import (
	"strings"

	cmdconfig "github.com/Iron-Ham/airlift/internal/cmd/config"
	"github.com/Iron-Ham/airlift/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "airlift",
	Short: "Airlift semaphore simulation",
	Long: `Airlift simulates a plane ferrying passengers between two airports.
A pilot, a hostess and a crowd of passengers coordinate through a shared
record guarded by a mutex and four rendezvous signals. Every state change
is appended to a state log for post-hoc inspection.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/airlift/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	cmdconfig.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// No config type: viper tries config.yaml, config.toml and friends
		viper.SetConfigName("config")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/airlift")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("AIRLIFT")
	// e.g., AIRLIFT_SIMULATION_CAPACITY for simulation.capacity
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
