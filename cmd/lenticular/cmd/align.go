package cmd

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MANISPIN/align-images-for-lenticular/internal/align"
	"github.com/MANISPIN/align-images-for-lenticular/internal/detector"
	"github.com/MANISPIN/align-images-for-lenticular/internal/export"
	"github.com/MANISPIN/align-images-for-lenticular/internal/region"
	"github.com/MANISPIN/align-images-for-lenticular/internal/utils"
)

// alignCmd represents the align command.
var alignCmd = &cobra.Command{
	Use:   "align <image>...",
	Short: "Align an ordered image sequence",
	Long: `Align two or more images of the same subject into a common canvas.

Images are processed in argument order. The first pass solves translations
from the selected regions in the sidecar file; the second pass refines each
adjacent pair's rotation from feature correspondences.

The regions sidecar is a YAML list with one entry per image, in the same
order as the arguments. Entries may be null for images without a selection:

  - {x: 100, y: 100, width: 50, height: 50}
  - {x: 120, y: 90, width: 50, height: 50}
  - null

Examples:
  lenticular align a.jpg b.jpg c.jpg --regions regions.yaml
  lenticular align *.png --regions regions.yaml --step 0.1 --crop
  lenticular align a.jpg b.jpg --regions regions.yaml --translation-only`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAlign,
}

func runAlign(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	translationOnly, _ := cmd.Flags().GetBool("translation-only")
	rotationOnly, _ := cmd.Flags().GetBool("rotation-only")
	if translationOnly && rotationOnly {
		return fmt.Errorf("--translation-only and --rotation-only are mutually exclusive")
	}

	regionsFile, _ := cmd.Flags().GetString("regions")
	records, err := loadRecords(args, regionsFile)
	if err != nil {
		return err
	}

	rotCfg := cfg.Pipeline.Rotation
	if cmd.Flags().Changed("step") {
		rotCfg.Step, _ = cmd.Flags().GetFloat64("step")
	}
	if cmd.Flags().Changed("max-angle") {
		maxAngle, _ := cmd.Flags().GetFloat64("max-angle")
		rotCfg.MinAngle = -maxAngle
		rotCfg.MaxAngle = maxAngle
	}

	var matcher align.Matcher
	if !translationOnly {
		detCfg := cfg.Pipeline.Detector
		detCfg.UpdateModelPath(cfg.ModelsDir)
		det, err := detector.NewDetector(detCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize feature detector: %w", err)
		}
		m := detector.NewMatcher(det)
		defer func() {
			_ = m.Close()
		}()
		matcher = m
	}

	aligner, err := align.New(align.Config{
		Filter:   cfg.Pipeline.Filter,
		Rotation: rotCfg,
		OnPairOutcome: func(o align.PairOutcome) {
			slog.Info("pair processed",
				"stage", o.Stage,
				"pair", o.Index,
				"cur", o.CurID,
				"status", o.Status,
				"angle", o.Angle,
				"raw_matches", o.RawMatches,
				"filtered_matches", o.FilteredMatches,
				"duration_ms", o.DurationMs)
		},
	}, matcher)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case translationOnly:
		err = aligner.RunTranslation(ctx, records)
	case rotationOnly:
		err = aligner.RunRotation(ctx, records)
	default:
		err = aligner.Run(ctx, records)
	}
	if err != nil {
		return fmt.Errorf("alignment failed: %w", err)
	}

	return writeOutputs(cmd, cfg.Output.CropToCommon, records)
}

// loadRecords decodes the argument images and attaches sidecar regions by
// index.
func loadRecords(paths []string, regionsFile string) ([]*align.ImageRecord, error) {
	var regions []*region.Region
	if regionsFile != "" {
		data, err := os.ReadFile(regionsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read regions file: %w", err)
		}
		if err := yaml.Unmarshal(data, &regions); err != nil {
			return nil, fmt.Errorf("failed to parse regions file: %w", err)
		}
	}

	records := make([]*align.ImageRecord, 0, len(paths))
	for i, path := range paths {
		if !utils.IsSupportedImage(path) {
			return nil, fmt.Errorf("unsupported image format: %s", path)
		}
		img, meta, err := utils.LoadImage(path)
		if err != nil {
			return nil, err
		}
		slog.Debug("loaded image", "path", path, "width", meta.Width, "height", meta.Height)

		rec := align.NewImageRecord(filepath.Base(path), img)
		if i < len(regions) {
			rec.Region = regions[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

func writeOutputs(cmd *cobra.Command, cropDefault bool, records []*align.ImageRecord) error {
	crop := cropDefault
	if cmd.Flags().Changed("crop") {
		crop, _ = cmd.Flags().GetBool("crop")
	}

	out, _ := cmd.Flags().GetString("out")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := export.WriteArchive(f, records, crop); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("wrote aligned frames", "path", out, "frames", len(records))

	if manifestPath, _ := cmd.Flags().GetString("manifest"); manifestPath != "" {
		data, err := export.NewManifest(records).Marshal()
		if err != nil {
			return err
		}
		if err := os.WriteFile(manifestPath, data, 0o600); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
		slog.Info("wrote manifest", "path", manifestPath)
	}

	if atlasPath, _ := cmd.Flags().GetString("atlas"); atlasPath != "" {
		cfg := GetConfig()
		rendered := export.RenderAll(records)
		frames := make([]image.Image, len(rendered))
		for i, r := range rendered {
			frames[i] = r
		}
		sheet := export.ContactSheet(frames, cfg.Output.AtlasColumns, cfg.Output.AtlasThumbWidth)
		if err := utils.SaveImage(sheet, atlasPath); err != nil {
			return fmt.Errorf("failed to write atlas: %w", err)
		}
		slog.Info("wrote contact sheet", "path", atlasPath)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(alignCmd)

	alignCmd.Flags().String("regions", "", "YAML sidecar with one region per image, in argument order")
	alignCmd.Flags().String("out", "aligned_frames.zip", "output zip path")
	alignCmd.Flags().String("manifest", "", "also write the alignment manifest to this path")
	alignCmd.Flags().String("atlas", "", "also write a contact-sheet preview to this path")
	alignCmd.Flags().Bool("translation-only", false, "run only the translation pass (no model needed)")
	alignCmd.Flags().Bool("rotation-only", false, "run only the rotation pass")
	alignCmd.Flags().Float64("step", 0, "rotation search step in degrees (default from config)")
	alignCmd.Flags().Float64("max-angle", 0, "rotation search half-window in degrees (default from config)")
	alignCmd.Flags().Bool("crop", false, "crop output frames to the area covered by every frame")
}
