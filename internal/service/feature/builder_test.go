package feature

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"geoscatter/internal/model"
	"geoscatter/internal/service/tabular"

	"github.com/paulmach/orb"
)

var coords = model.DefaultCoordinateFields

func TestBuildRoundTrip(t *testing.T) {
	schema := model.Schema{Fields: []model.Field{
		{Source: "id", Kind: model.FieldNumeric},
		{Source: "name", Kind: model.FieldString},
		{Source: "longitude", Kind: model.FieldNumeric},
		{Source: "latitude", Kind: model.FieldNumeric},
	}}
	records := tabular.ParseString("id,name,longitude,latitude\n1,X,10.5,20.25\n", schema)

	fc := Build(records, coords)
	if len(fc.Features) != 1 {
		t.Fatalf("got %d features, want 1", len(fc.Features))
	}

	f := fc.Features[0]
	if f.Type != "Feature" {
		t.Errorf("feature type = %q", f.Type)
	}
	point, ok := f.Geometry.(orb.Point)
	if !ok {
		t.Fatalf("geometry is %T, want orb.Point", f.Geometry)
	}
	if point != (orb.Point{10.5, 20.25}) {
		t.Errorf("coordinates = %v, want [10.5 20.25]", point)
	}

	want := map[string]any{"id": 1.0, "name": "X"}
	if !reflect.DeepEqual(map[string]any(f.Properties), want) {
		t.Errorf("properties = %#v, want %#v", f.Properties, want)
	}
}

func TestBuildCoordinateOrdering(t *testing.T) {
	records := []model.GeoRecord{
		{"name": "a", "longitude": -122.4, "latitude": 37.8},
		{"name": "b", "longitude": 151.2, "latitude": -33.9},
		{"name": "c", "longitude": 200.0, "latitude": 10.0},
		{"name": "d", "longitude": 10.0, "latitude": 95.0},
	}

	fc, stats := BuildWithStats(records, coords)
	if stats.Kept != 2 || stats.Dropped != 2 || stats.Records != 4 {
		t.Errorf("stats = %+v, want 2 kept 2 dropped of 4", stats)
	}

	for i, f := range fc.Features {
		p := f.Geometry.(orb.Point)
		src := records[i]
		if p[0] != src["longitude"] || p[1] != src["latitude"] {
			t.Errorf("feature %d = %v, want [lon lat] of %v", i, p, src)
		}
		if p[0] < -180 || p[0] > 180 || p[1] < -90 || p[1] > 90 {
			t.Errorf("feature %d out of range: %v", i, p)
		}
	}
	if fc.Features[0].Properties["name"] != "a" || fc.Features[1].Properties["name"] != "b" {
		t.Error("feature order does not follow input order")
	}
}

func TestBuildPermissiveCoercion(t *testing.T) {
	schema := model.Schema{Fields: []model.Field{
		{Source: "id", Kind: model.FieldNumeric},
		{Source: "state_id", Kind: model.FieldNumeric, RenameTo: "stateId"},
		{Source: "longitude", Kind: model.FieldNumeric},
		{Source: "latitude", Kind: model.FieldNumeric},
	}}
	input := "id,state_id,longitude,latitude\n" +
		"1,abc,10,20\n" +
		"2,7,10,north\n"

	fc := Build(tabular.ParseString(input, schema), coords)
	if len(fc.Features) != 1 {
		t.Fatalf("got %d features, want 1", len(fc.Features))
	}
	props := fc.Features[0].Properties
	if props["id"] != 1.0 {
		t.Errorf("surviving feature id = %v, want 1", props["id"])
	}
	if v, ok := props["stateId"]; !ok || v != nil {
		t.Errorf("stateId = %#v, want missing marker", v)
	}
}

func TestBuildDropsNonFinite(t *testing.T) {
	records := []model.GeoRecord{
		{"longitude": math.NaN(), "latitude": 1.0},
		{"longitude": 1.0, "latitude": math.Inf(-1)},
		{"longitude": "1", "latitude": 1.0},
		{"latitude": 1.0},
	}
	if fc := Build(records, coords); len(fc.Features) != 0 {
		t.Errorf("got %d features, want 0", len(fc.Features))
	}
}

func TestBuildDoesNotMutateRecords(t *testing.T) {
	record := model.GeoRecord{"id": 1.0, "longitude": 1.0, "latitude": 2.0}
	Build([]model.GeoRecord{record}, coords)
	if len(record) != 3 {
		t.Errorf("record mutated: %#v", record)
	}
}

func TestBuildMarshalsAsGeoJSON(t *testing.T) {
	fc := Build([]model.GeoRecord{{"id": 1.0, "longitude": 10.5, "latitude": 20.25}}, coords)

	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string     `json:"type"`
				Coordinates [2]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Type != "FeatureCollection" || len(doc.Features) != 1 {
		t.Fatalf("unexpected document: %s", data)
	}
	g := doc.Features[0].Geometry
	if g.Type != "Point" || g.Coordinates != [2]float64{10.5, 20.25} {
		t.Errorf("geometry = %+v", g)
	}
}
