package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var RootCmd = &cobra.Command{
	Use:   "dac-sync",
	Short: "Reconcile a baseline DAC model with a database export package",
	Long: `
DAC-SYNC - Bacpac Model Sync Tool

Extracts a .bacpac export package, compares its schema model against a
baseline model.xml, merges missing tables, columns and auxiliary objects
into the baseline, repairs the package checksum and repackages an updated
.bacpac ready for import.
`,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dac-sync.yaml)")
	RootCmd.PersistentFlags().String("output-dir", "", "directory for extracted and repackaged artifacts")
	viper.BindPFlag("output.dir", RootCmd.PersistentFlags().Lookup("output-dir"))

	viper.SetDefault("baseline.model", "model.xml")
	viper.SetDefault("output.dir", "./output")
	viper.SetDefault("package.dir", "./bacpac")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Credentials commonly live in a .env next to the compose file.
	godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("dac-sync")
		viper.SetConfigType("yaml")
	}

	// source.package <-> SOURCE_PACKAGE, export.server <-> EXPORT_SERVER, etc.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("export.auto", "AUTO_EXPORT")
	viper.BindEnv("baseline.model", "BASELINE_MODEL")
	viper.BindEnv("source.package", "SOURCE_PACKAGE")
	viper.BindEnv("output.dir", "OUTPUT_DIR")
	viper.BindEnv("package.dir", "PACKAGE_DIR")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
