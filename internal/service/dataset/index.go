package dataset

import (
	"slices"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const pointTolerance = 1e-9

// indexedFeature implements rtreego.Spatial for a point feature
type indexedFeature struct {
	point   orb.Point
	pos     int
	feature *geojson.Feature
}

func (f *indexedFeature) Bounds() rtreego.Rect {
	rect, _ := rtreego.NewRect(
		rtreego.Point{f.point[0], f.point[1]},
		[]float64{pointTolerance, pointTolerance},
	)
	return rect
}

// buildIndex loads an R-tree with every point feature of fc
func buildIndex(fc *geojson.FeatureCollection) *rtreego.Rtree {
	tree := rtreego.NewTree(2, 25, 50) // 2D index with min 25, max 50 entries per node
	for i, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		tree.Insert(&indexedFeature{point: p, pos: i, feature: f})
	}
	return tree
}

// search returns the features inside b in collection order.
// A bound with Min longitude above Max longitude crosses the antimeridian.
func search(tree *rtreego.Rtree, b orb.Bound) []*geojson.Feature {
	bounds := []orb.Bound{b}
	if b.Min[0] > b.Max[0] {
		bounds = []orb.Bound{
			{Min: orb.Point{b.Min[0], b.Min[1]}, Max: orb.Point{180, b.Max[1]}},
			{Min: orb.Point{-180, b.Min[1]}, Max: orb.Point{b.Max[0], b.Max[1]}},
		}
	}

	var hits []*indexedFeature
	for _, bound := range bounds {
		rect, err := rtreego.NewRect(
			rtreego.Point{bound.Min[0], bound.Min[1]},
			[]float64{
				max(bound.Max[0]-bound.Min[0], pointTolerance),
				max(bound.Max[1]-bound.Min[1], pointTolerance),
			},
		)
		if err != nil {
			continue
		}
		for _, s := range tree.SearchIntersect(rect) {
			f := s.(*indexedFeature)
			if bound.Contains(f.point) {
				hits = append(hits, f)
			}
		}
	}

	slices.SortFunc(hits, func(a, b *indexedFeature) int { return a.pos - b.pos })
	hits = slices.CompactFunc(hits, func(a, b *indexedFeature) bool { return a.pos == b.pos })

	features := make([]*geojson.Feature, len(hits))
	for i, h := range hits {
		features[i] = h.feature
	}
	return features
}
