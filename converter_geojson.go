package osm2sidewalk

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// ExportGeoJSON renders the network as a GeoJSON FeatureCollection with one
// LineString feature per way. Coordinates are [lon, lat] pairs.
func ExportGeoJSON(net *Network) ([]byte, error) {
	collection := geojson.NewFeatureCollection()
	for _, way := range net.Ways() {
		coords := make([][]float64, 0, len(way.Nodes))
		for _, nodeID := range way.Nodes {
			node := net.Node(nodeID)
			if node == nil {
				return nil, errors.Wrapf(ErrNodeNotFound, "way %d references node %d", way.ID, nodeID)
			}
			coords = append(coords, []float64{node.Lon(), node.Lat()})
		}
		feature := geojson.NewLineStringFeature(coords)
		feature.ID = fmt.Sprintf("way/%d", way.ID)
		feature.SetProperty("id", int64(way.ID))
		feature.SetProperty("type", way.Type)
		feature.SetProperty("user", "osm2sidewalk")
		feature.SetProperty("stroke", "#555555")
		if way.Ref != "" {
			feature.SetProperty("ref", way.Ref)
		}
		collection.AddFeature(feature)
	}
	data, err := collection.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal feature collection")
	}
	return data, nil
}
