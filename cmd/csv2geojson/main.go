package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"geoscatter/internal/config"
	"geoscatter/internal/logging"
	"geoscatter/internal/service/dataset"
	"geoscatter/internal/service/source"
	"geoscatter/internal/util"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cast"
)

func main() {
	var (
		name    string
		input   string
		output  string
		bbox    string
		pretty  bool
		verbose bool
	)

	flag.StringVar(&name, "dataset", "cities", "Dataset preset: cities or airports")
	flag.StringVar(&input, "input", "", "Input file path or URL (default: the preset's configured source)")
	flag.StringVar(&output, "output", "-", "Output GeoJSON file, - for stdout")
	flag.StringVar(&bbox, "bbox", "", "Only keep features inside minLon,minLat,maxLon,maxLat")
	flag.BoolVar(&pretty, "pretty", false, "Indent the output")
	flag.BoolVar(&verbose, "v", false, "Debug logging")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logging.NewWithWriter(os.Stderr, cfg, "csv2geojson")

	if err := run(cfg, log, name, input, output, bbox, pretty); err != nil {
		log.Error("conversion failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, name, input, output, bbox string, pretty bool) error {
	var preset *config.Dataset
	for _, d := range cfg.Datasets() {
		if d.Name == name {
			preset = &d
			break
		}
	}
	if preset == nil {
		return fmt.Errorf("unknown dataset preset %q", name)
	}
	if input != "" {
		preset.Source = input
	}

	svc := dataset.NewService([]dataset.Dataset{{
		Name:        preset.Name,
		Schema:      preset.Schema,
		Coordinates: preset.Coordinates,
		Source:      source.For(preset.Source, nil),
	}}, nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fc, err := svc.Load(ctx, preset.Name)
	if err != nil {
		return err
	}

	if bbox != "" {
		bound, err := parseBBox(bbox)
		if err != nil {
			return err
		}
		features, err := svc.Within(preset.Name, bound)
		if err != nil {
			return err
		}
		fc = geojson.NewFeatureCollection()
		fc.Features = features
	}

	if len(fc.Features) > 0 {
		extent := fc.Features[0].Geometry.Bound()
		for _, f := range fc.Features[1:] {
			extent = extent.Union(f.Geometry.Bound())
		}
		log.Info("converted",
			"dataset", preset.Name,
			"features", len(fc.Features),
			"diagonal_km", util.HaversineDistance(extent.Min, extent.Max)/1000,
		)
	}

	return writeGeoJSON(fc, output, pretty)
}

func parseBBox(raw string) (orb.Bound, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox must be minLon,minLat,maxLon,maxLat, got %q", raw)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := cast.ToFloat64E(strings.TrimSpace(p))
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox value %q: %w", p, err)
		}
		v[i] = f
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

func writeGeoJSON(fc *geojson.FeatureCollection, output string, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(fc, "", "  ")
	} else {
		data, err = json.Marshal(fc)
	}
	if err != nil {
		return fmt.Errorf("marshal GeoJSON: %w", err)
	}

	if output == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}
