package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"medreel/internal/encoder"
	"medreel/internal/ingest"
	"medreel/internal/library"
)

var flagSource string

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Add clips to the library index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		lib, err := library.Load(cfg.LibraryDir())
		if err != nil {
			return fmt.Errorf("load library: %w", err)
		}

		emb, err := encoder.LoadImage(cfg.ModelDir)
		if err != nil {
			return err
		}

		ing := ingest.New(lib, emb, cfg.AssetsDir(), cfg.KeyframesDir(), flagSource)

		start := time.Now()
		total := ingest.Stats{}
		for _, path := range args {
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if info.IsDir() {
				stats, err := ing.IngestDir(path)
				if stats != nil {
					total.FilesTotal += stats.FilesTotal
					total.Ingested += stats.Ingested
					total.Duplicates += stats.Duplicates
					total.Failed += stats.Failed
				}
				if err != nil {
					return err
				}
				continue
			}

			total.FilesTotal++
			rec, err := ing.IngestFile(path)
			if errors.Is(err, library.ErrDuplicateClip) {
				total.Duplicates++
				fmt.Printf("  skipped %s (already indexed)\n", path)
				continue
			}
			if err != nil {
				return err
			}
			total.Ingested++
			fmt.Printf("  indexed %s  (%s, %.1fs)\n", rec.URI, rec.ID, rec.Duration)
		}

		fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  Clips:  %d total, %d indexed, %d duplicates, %d failed\n",
			total.FilesTotal, total.Ingested, total.Duplicates, total.Failed)
		fmt.Printf("  Index:  %d clips, %d dims\n", lib.Len(), lib.Dim())
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&flagSource, "source", "library", `source tag for ingested clips ("library" or "generated")`)
	rootCmd.AddCommand(ingestCmd)
}
