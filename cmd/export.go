package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"dac-sync/internal/export"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportPhases = []string{
	"Connecting to database",
	"Analyzing schema",
	"Exporting tables",
	"Exporting data",
	"Compressing package",
	"Finalizing",
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a .bacpac from a live database via SqlPackage",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := exportOptionsFromConfig()
		if opts.Server == "" || opts.Database == "" || opts.Username == "" || opts.Password == "" {
			return fmt.Errorf("export requires server, database, username and password (flags, config or EXPORT_* env)")
		}
		if opts.OutputPath == "" {
			opts.OutputPath = filepath.Join(viper.GetString("package.dir"), opts.Database+".bacpac")
		}
		return runExport(opts)
	},
}

func init() {
	RootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("server", "", "Database server host")
	exportCmd.Flags().String("database", "", "Database name")
	exportCmd.Flags().String("username", "", "Login user")
	exportCmd.Flags().String("password", "", "Login password")
	exportCmd.Flags().String("target", "", "Target .bacpac path")

	viper.BindPFlag("export.server", exportCmd.Flags().Lookup("server"))
	viper.BindPFlag("export.database", exportCmd.Flags().Lookup("database"))
	viper.BindPFlag("export.username", exportCmd.Flags().Lookup("username"))
	viper.BindPFlag("export.password", exportCmd.Flags().Lookup("password"))
	viper.BindPFlag("export.target", exportCmd.Flags().Lookup("target"))
}

func exportOptionsFromConfig() export.Options {
	return export.Options{
		Server:     viper.GetString("export.server"),
		Database:   viper.GetString("export.database"),
		Username:   viper.GetString("export.username"),
		Password:   viper.GetString("export.password"),
		OutputPath: viper.GetString("export.target"),
	}
}

// runExport invokes SqlPackage with a progress bar wired to the exporter's
// observer callback. The bar is display only.
func runExport(opts export.Options) error {
	fmt.Println("============================================================")
	fmt.Println("EXPORTING PACKAGE")
	fmt.Println("============================================================")
	fmt.Printf("\n[*] Exporting from: %s/%s\n", opts.Server, opts.Database)
	fmt.Printf("[*] Output: %s\n", opts.OutputPath)
	fmt.Printf("[*] This may take several minutes...\n\n")

	var elapsedSec int64

	uiprogress.Start()
	bar := uiprogress.AddBar(60).PrependElapsed()
	bar.AppendFunc(func(b *uiprogress.Bar) string {
		sec := atomic.LoadInt64(&elapsedSec)
		phase := int(sec / 30)
		if phase >= len(exportPhases) {
			phase = len(exportPhases) - 1
		}
		return exportPhases[phase] + "..."
	})

	opts.Observer = func(elapsed time.Duration) {
		atomic.StoreInt64(&elapsedSec, int64(elapsed.Seconds()))
		bar.Set(int(elapsed.Seconds()) % 60)
	}

	elapsed, err := export.Run(opts)
	uiprogress.Stop()

	mins := int(elapsed.Minutes())
	secs := int(elapsed.Seconds()) % 60

	if err != nil {
		fmt.Printf("\n[x] Export failed!\n")
		fmt.Printf("    Time: %dm %ds\n", mins, secs)
		return err
	}

	fmt.Printf("\n[+] Export successful!\n")
	fmt.Printf("    Time: %dm %ds\n", mins, secs)
	if info, statErr := os.Stat(opts.OutputPath); statErr == nil {
		fmt.Printf("    File size: %.2f MB\n", float64(info.Size())/(1024*1024))
	}
	return nil
}
