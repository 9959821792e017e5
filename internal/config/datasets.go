package config

import (
	"path/filepath"
	"strings"

	"geoscatter/internal/model"
)

// Dataset describes where a dataset comes from and how its columns map to fields
type Dataset struct {
	Name        string
	Source      string // URL or file path
	Schema      model.Schema
	Coordinates model.CoordinateFields
}

// IsRemote reports whether the source is fetched over HTTP
func (d Dataset) IsRemote() bool {
	return strings.HasPrefix(d.Source, "http://") || strings.HasPrefix(d.Source, "https://")
}

var citiesSchema = model.Schema{
	Fields: []model.Field{
		{Source: "id", Kind: model.FieldNumeric},
		{Source: "name", Kind: model.FieldString},
		{Source: "state_id", Kind: model.FieldNumeric, RenameTo: "stateId"},
		{Source: "state_code", Kind: model.FieldString, RenameTo: "stateCode"},
		{Source: "country_id", Kind: model.FieldNumeric, RenameTo: "countryId"},
		{Source: "country_code", Kind: model.FieldString, RenameTo: "countryCode"},
		{Source: "country_name", Kind: model.FieldString, RenameTo: "countryName"},
		{Source: "wikiDataId", Kind: model.FieldString},
		{Source: "longitude", Kind: model.FieldNumeric},
		{Source: "latitude", Kind: model.FieldNumeric},
	},
}

var airportsSchema = model.Schema{
	Fields: []model.Field{
		{Source: "OBJECTID", Kind: model.FieldNumeric, RenameTo: "id"},
		{Source: "NAME", Kind: model.FieldString, RenameTo: "name"},
		{Source: "X", Kind: model.FieldNumeric, RenameTo: "longitude"},
		{Source: "Y", Kind: model.FieldNumeric, RenameTo: "latitude"},
	},
}

// Datasets returns the configured datasets. Relative file sources resolve against DATA_DIR.
func (c Config) Datasets() []Dataset {
	datasets := []Dataset{
		{Name: "cities", Source: c.CitiesSource, Schema: citiesSchema, Coordinates: model.DefaultCoordinateFields},
		{Name: "airports", Source: c.AirportsSource, Schema: airportsSchema, Coordinates: model.DefaultCoordinateFields},
	}

	for i := range datasets {
		d := &datasets[i]
		if !d.IsRemote() && !filepath.IsAbs(d.Source) && c.DataDir != "" {
			d.Source = filepath.Join(c.DataDir, d.Source)
		}
	}
	return datasets
}
