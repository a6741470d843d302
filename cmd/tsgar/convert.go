package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoscience-analytics/tsgar"
	"github.com/geoscience-analytics/tsgar/tsg"
	"github.com/geoscience-analytics/tsgar/zarr"
)

var (
	outputDir      string
	spectra        string
	indexCoord     string
	withImage      bool
	subsampleImage int
	compressor     string
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <path>",
	Short: "Convert TSG datasets to Zarr archives",
	Long: `Convert TSG datasets to Zarr archives. The path may be a band
header file, a dataset directory or a tree containing several datasets:
  tsgar convert /data/holes
  tsgar convert /data/holes/KDD001_tsg/KDD001_tsg_tir.tsg
  `,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := convertTargets(args[0])
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return fmt.Errorf("no TSG datasets under %s", args[0])
		}
		for _, target := range targets {
			if err := convertOne(target); err != nil {
				return fmt.Errorf("convert %s %s: %w", target.Hole, target.Band, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for the Zarr archives (default: beside each dataset)")
	convertCmd.Flags().StringVarP(&spectra, "spectra", "s", "all", "bands to convert: NIR, TIR or all")
	convertCmd.Flags().StringVar(&indexCoord, "index-coord", tsgar.IndexSample, "index coordinate: sample or depth")
	convertCmd.Flags().BoolVar(&withImage, "image", false, "include the linescan imagery")
	convertCmd.Flags().IntVar(&subsampleImage, "subsample-image", 10, "imagery subsampling stride")
	convertCmd.Flags().StringVar(&compressor, "compressor", zarr.CodecZstd, "chunk compressor: zstd, gzip or none")
}

// convertTargets resolves the path argument to the datasets to convert:
// a band header file names one band, anything else is walked for
// datasets and filtered by the --spectra flag.
func convertTargets(path string) ([]tsgar.Discovered, error) {
	if strings.HasSuffix(path, ".tsg") {
		name := filepath.Base(path)
		switch {
		case strings.HasSuffix(name, "_tsg_tir.tsg"):
			return []tsgar.Discovered{{
				Hole: strings.TrimSuffix(name, "_tsg_tir.tsg"),
				Dir:  filepath.Dir(path),
				Band: tsg.BandTIR,
			}}, nil
		case strings.HasSuffix(name, "_tsg.tsg"):
			return []tsgar.Discovered{{
				Hole: strings.TrimSuffix(name, "_tsg.tsg"),
				Dir:  filepath.Dir(path),
				Band: tsg.BandNIR,
			}}, nil
		default:
			return nil, fmt.Errorf("%s is not a TSG band header file", path)
		}
	}

	found, err := tsgar.FindDatasets(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(spectra, "all") {
		return found, nil
	}
	band := tsg.Band(strings.ToUpper(spectra))
	if band != tsg.BandNIR && band != tsg.BandTIR {
		return nil, fmt.Errorf("unknown band %q", spectra)
	}
	kept := found[:0]
	for _, d := range found {
		if d.Band == band {
			kept = append(kept, d)
		}
	}
	return kept, nil
}

func convertOne(d tsgar.Discovered) error {
	opts := []tsgar.LoadOption{
		tsgar.WithBand(d.Band),
		tsgar.WithImage(withImage),
		tsgar.WithSubsample(subsampleImage),
	}
	if indexCoord == "depth" {
		opts = append(opts, tsgar.WithIndexCoord(tsgar.IndexDepth))
	}

	ds, err := tsgar.Load(d.Dir, opts...)
	if err != nil {
		return err
	}

	hole := d.Hole
	if c := ds.Coord("hole"); c != nil {
		if names, ok := c.Values.([]string); ok && len(names) > 0 && names[0] != "" {
			hole = names[0]
		}
	}

	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(d.Dir)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.zarr", hole, d.Band))

	codec, err := zarr.NewCompressor(compressor, 0)
	if err != nil {
		return err
	}
	if err := zarr.Save(path, ds, zarr.WithCompressor(codec)); err != nil {
		return err
	}
	logger.Info("converted dataset",
		zap.String("hole", hole),
		zap.String("band", string(d.Band)),
		zap.String("source", d.Dir),
		zap.String("archive", path),
	)
	return nil
}
