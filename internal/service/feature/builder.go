// Package feature converts parsed records into GeoJSON point features.
package feature

import (
	"geoscatter/internal/model"
	"geoscatter/internal/util"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Stats counts what happened to the records of one build
type Stats struct {
	Records int
	Kept    int
	Dropped int
}

// Build maps records to a point FeatureCollection.
// Records without a finite, in-range longitude and latitude are dropped.
func Build(records []model.GeoRecord, coords model.CoordinateFields) *geojson.FeatureCollection {
	fc, _ := BuildWithStats(records, coords)
	return fc
}

// BuildWithStats is Build plus kept/dropped counts
func BuildWithStats(records []model.GeoRecord, coords model.CoordinateFields) (*geojson.FeatureCollection, Stats) {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(records))
	stats := Stats{Records: len(records)}

	for _, record := range records {
		point, ok := pointOf(record, coords)
		if !ok {
			stats.Dropped++
			continue
		}

		feature := geojson.NewFeature(point)
		for k, v := range record {
			if k == coords.Longitude || k == coords.Latitude {
				continue
			}
			feature.Properties[k] = v
		}

		fc.Append(feature)
		stats.Kept++
	}

	return fc, stats
}

// pointOf returns the record position as [lon, lat]
func pointOf(record model.GeoRecord, coords model.CoordinateFields) (orb.Point, bool) {
	lon, ok := record.Float(coords.Longitude)
	if !ok {
		return orb.Point{}, false
	}
	lat, ok := record.Float(coords.Latitude)
	if !ok {
		return orb.Point{}, false
	}
	if !util.ValidLonLat(lon, lat) {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}
