package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/detect-demo/config"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "detect-demo",
	Short:         "Object detection and instance segmentation demo",
	Long:          "Fetches an image by URL, runs a pretrained detection or segmentation model over it and renders the annotated result.",
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv(config.EnvConfigPath),
		"YAML config file merged over the defaults (env "+config.EnvConfigPath+")")
}
