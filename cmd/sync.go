package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dac-sync/internal/diff"
	"dac-sync/internal/merge"
	"dac-sync/internal/model"
	"dac-sync/internal/pack"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync [package]",
	Short: "Merge the package model into the baseline and repackage",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pkgPath := viper.GetString("source.package")
		if len(args) > 0 {
			pkgPath = args[0]
		}

		// AUTO_EXPORT pulls a fresh package before syncing.
		if viper.GetBool("export.auto") {
			opts := exportOptionsFromConfig()
			if opts.Server != "" && opts.Database != "" && opts.Username != "" && opts.Password != "" {
				opts.OutputPath = filepath.Join(viper.GetString("package.dir"), opts.Database+".bacpac")
				if err := runExport(opts); err != nil {
					return fmt.Errorf("auto-export failed: %w", err)
				}
				pkgPath = opts.OutputPath
			}
		}

		if pkgPath == "" {
			return fmt.Errorf("no source package given (argument, SOURCE_PACKAGE or source.package)")
		}

		return runSync(pkgPath, viper.GetString("baseline.model"), viper.GetString("output.dir"))
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compare and report only, without merging or repackaging")
	syncCmd.Flags().String("baseline", "", "Baseline model.xml path (overrides config)")
	viper.BindPFlag("baseline.model", syncCmd.Flags().Lookup("baseline"))
}

func runSync(pkgPath, baselinePath, outputDir string) error {
	fmt.Println("============================================================")
	fmt.Println("BACPAC MODEL SYNC")
	fmt.Println("============================================================")

	// Step 0: the output dir is cleaned once, up front. Never mid-run, so a
	// failed run cannot destroy a previous good artifact halfway through.
	cleanupOutputDir(outputDir)

	fmt.Printf("[1] Extracting %s...\n", pkgPath)
	modelPath, extractDir, err := pack.Extract(pkgPath, outputDir)
	if err != nil {
		return err
	}
	fmt.Printf("    Extracted to: %s\n", extractDir)

	fmt.Println("\n[2] Parsing models...")
	fmt.Printf("    Baseline model: %s\n", baselinePath)
	fmt.Printf("    Package model:  %s\n", modelPath)

	baseRoot, err := model.Load(baselinePath)
	if err != nil {
		return fmt.Errorf("baseline model: %w", err)
	}
	srcRoot, err := model.Load(modelPath)
	if err != nil {
		return fmt.Errorf("package model: %w", err)
	}

	fmt.Println("\n[3] Comparing models...")
	baseTables := model.Tables(baseRoot, model.Excluded)
	srcTables := model.Tables(srcRoot, model.Excluded)
	diff.Compare(baseTables, srcTables).Report(os.Stdout)

	if syncDryRun {
		log.Println("[SIMULATION] Dry-Run Mode Active: baseline left untouched.")
		return nil
	}

	fmt.Println("\n[4] Merging models...")
	stats, err := merge.Apply(baseRoot, srcRoot)
	if err != nil {
		return err
	}
	fmt.Printf("    Added %d tables, %d columns\n", stats.TablesAdded, stats.ColumnsAdded)
	if len(stats.AddedColumns) > 0 {
		fmt.Println("\n    [COLUMNS ADDED]")
		for _, col := range stats.AddedColumns {
			fmt.Printf("      + %s\n", col)
		}
	}

	fmt.Println("\n[5] Saving merged model...")
	mergedPath := filepath.Join(outputDir, "model_merged.xml")
	if err := model.Save(mergedPath, baseRoot, model.WriteOptions{DefaultNamespace: model.Namespace}); err != nil {
		return err
	}
	fmt.Printf("    Saved to: %s\n", mergedPath)

	fmt.Println("\n[6] Replacing model in extracted package...")
	if err := copyFile(mergedPath, modelPath); err != nil {
		return err
	}
	fmt.Printf("    Replaced: %s\n", modelPath)

	fmt.Println("\n[7] Updating manifest checksum...")
	digest, err := pack.RepairManifest(extractDir, modelPath)
	if err != nil {
		// A stale checksum is a tolerated degradation, not a failed run.
		log.Printf("Warning: checksum repair skipped: %v", err)
	} else {
		fmt.Printf("    New model.xml hash: %s\n", digest)
	}

	fmt.Println("\n[7b] Cleaning reserved-subsystem data files...")
	removed, names, err := pack.RemoveSubsystemData(extractDir)
	if err != nil {
		log.Printf("Warning: data cleanup incomplete: %v", err)
	}
	for _, n := range names {
		fmt.Printf("    Removed: %s\n", n)
	}
	fmt.Printf("    Total removed: %d data items\n", removed)

	fmt.Println("\n[8] Repackaging...")
	timestamp := time.Now().Format("20060102_150405")
	base := filepath.Base(pkgPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	newPkg := filepath.Join(outputDir, fmt.Sprintf("%s_updated_%s.bacpac", name, timestamp))
	if err := pack.Create(extractDir, newPkg); err != nil {
		return err
	}
	fmt.Printf("    Created: %s\n", newPkg)

	fmt.Println("\n============================================================")
	fmt.Println("COMPLETED SUCCESSFULLY")
	fmt.Println("============================================================")
	return nil
}

// cleanupOutputDir empties the output directory without removing the
// directory itself, which may be a mounted volume.
func cleanupOutputDir(outputDir string) {
	fmt.Printf("[0] Cleaning up output directory: %s\n", outputDir)
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: could not read %s: %v", outputDir, err)
		}
		os.MkdirAll(outputDir, 0o755)
		fmt.Println("    Output directory ready")
		return
	}
	for _, e := range entries {
		path := filepath.Join(outputDir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("Warning: could not delete %s: %v", path, err)
		}
	}
	fmt.Println("    Output directory ready")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
