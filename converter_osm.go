package osm2sidewalk

import (
	"encoding/xml"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// ExportOSM renders the network as an OSM XML document. Synthesized
// footways carry highway=footway plus footway=sidewalk; every other way
// keeps its original road class in the highway tag.
func ExportOSM(net *Network) ([]byte, error) {
	bounds := net.BBox()
	doc := &osm.OSM{
		Bounds: &osm.Bounds{
			MinLat: bounds.MinLat,
			MinLon: bounds.MinLon,
			MaxLat: bounds.MaxLat,
			MaxLon: bounds.MaxLon,
		},
	}

	for _, node := range net.Nodes() {
		doc.Nodes = append(doc.Nodes, &osm.Node{
			ID:      node.ID,
			Lat:     node.Lat(),
			Lon:     node.Lon(),
			Visible: true,
			Version: 1,
		})
	}

	for _, way := range net.Ways() {
		outWay := &osm.Way{
			ID:      way.ID,
			Visible: true,
			Version: 1,
		}
		for _, nodeID := range way.Nodes {
			if net.Node(nodeID) == nil {
				return nil, errors.Wrapf(ErrNodeNotFound, "way %d references node %d", way.ID, nodeID)
			}
			outWay.Nodes = append(outWay.Nodes, osm.WayNode{ID: nodeID})
		}
		outWay.Tags = append(outWay.Tags, osm.Tag{Key: "highway", Value: way.Type})
		if way.Type == WayTypeFootway {
			outWay.Tags = append(outWay.Tags, osm.Tag{Key: "footway", Value: "sidewalk"})
		}
		if way.Ref != "" {
			outWay.Tags = append(outWay.Tags, osm.Tag{Key: "ref", Value: way.Ref})
		}
		if way.Oneway {
			outWay.Tags = append(outWay.Tags, osm.Tag{Key: "oneway", Value: "yes"})
		}
		doc.Ways = append(doc.Ways, outWay)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal OSM document")
	}
	return append([]byte(xml.Header), body...), nil
}
