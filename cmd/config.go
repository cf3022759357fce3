package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fugue/flowrun/format"
)

// resolvedConfig is the set of options a run resolves from flags, config
// file, and environment, the same fields NewRunCommand reads out of viper.
type resolvedConfig struct {
	Dir           string
	Jobs          int
	Cluster       bool
	SubmitCommand string
	Cache         string
	CacheDir      string
	QueueURL      string
	Quiet         bool
	Debug         bool
}

func currentConfig() resolvedConfig {
	return resolvedConfig{
		Dir:           viper.GetString("dir"),
		Jobs:          viper.GetInt("jobs"),
		Cluster:       viper.GetBool("cluster"),
		SubmitCommand: viper.GetString("submit-command"),
		Cache:         viper.GetString("cache"),
		CacheDir:      viper.GetString("cache-dir"),
		QueueURL:      viper.GetString("queue-url"),
		Quiet:         viper.GetBool("quiet"),
		Debug:         viper.GetBool("debug"),
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved run configuration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(format.Table(format.StructFields(currentConfig())))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
