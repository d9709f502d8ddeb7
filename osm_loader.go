package osm2sidewalk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

// OSMScanner is the common surface of the XML and PBF object scanners.
type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// DefaultHighwayTags are the road classes imported when the configuration
// lists none. Sidewalks make sense next to streets, not next to motorways
// or service alleys.
var DefaultHighwayTags = []string{"primary", "secondary", "tertiary", "residential"}

// OsmConfiguration filters which OSM ways become part of the network.
type OsmConfiguration struct {
	// Highways is the accepted set of `highway` tag values.
	Highways []string
	Verbose  bool
}

// CheckTag reports whether the highway tag value is accepted.
func (cfg *OsmConfiguration) CheckTag(tag string) bool {
	highways := cfg.Highways
	if len(highways) == 0 {
		highways = DefaultHighwayTags
	}
	for i := range highways {
		if highways[i] == tag {
			return true
		}
	}
	return false
}

func newScanner(filename string, file *os.File) (OSMScanner, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(context.Background(), file), nil
	case ".pbf", ".osm.pbf":
		return osmpbf.New(context.Background(), file, 4), nil
	default:
		return nil, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}

// ImportFromOSMFile reads an OSM extract (XML or PBF) and builds a street
// network from the ways whose highway tag passes the configuration filter.
// Nodes not referenced by any accepted way are dropped. Every way's node
// order is normalized so that the first node is the west-most endpoint.
func ImportFromOSMFile(filename string, cfg *OsmConfiguration) (*Network, error) {
	verbose := cfg != nil && cfg.Verbose
	if verbose {
		fmt.Printf("Opening file: '%s'...\n", filename)
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if cfg == nil {
		cfg = &OsmConfiguration{}
	}

	/* Process ways */
	if verbose {
		fmt.Printf("\tProcessing ways... ")
	}
	st := time.Now()
	type rawWay struct {
		id     osm.WayID
		nodes  []osm.NodeID
		class  string
		oneway bool
		ref    string
	}
	ways := []rawWay{}
	nodesSeen := make(map[osm.NodeID]struct{})
	{
		scannerWays, err := newScanner(filename, file)
		if err != nil {
			return nil, err
		}
		defer scannerWays.Close()
		for scannerWays.Scan() {
			obj := scannerWays.Object()
			if obj.ObjectID().Type() != "way" {
				continue
			}
			way := obj.(*osm.Way)
			highway := way.Tags.Find("highway")
			if !cfg.CheckTag(highway) {
				continue
			}
			if len(way.Nodes) < 2 {
				continue
			}
			raw := rawWay{
				id:    way.ID,
				nodes: make([]osm.NodeID, 0, len(way.Nodes)),
				class: highway,
				ref:   way.Tags.Find("ref"),
			}
			onewayText := way.Tags.Find("oneway")
			if onewayText == "yes" || onewayText == "1" {
				raw.oneway = true
			}
			for _, node := range way.Nodes {
				nodesSeen[node.ID] = struct{}{}
				raw.nodes = append(raw.nodes, node.ID)
			}
			ways = append(ways, raw)
		}
		if err := scannerWays.Err(); err != nil {
			return nil, err
		}
	}
	if verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking after ways scanning")
	}

	/* Process nodes */
	if verbose {
		fmt.Printf("\tProcessing nodes... ")
	}
	st = time.Now()
	net := NewNetwork()
	{
		scannerNodes, err := newScanner(filename, file)
		if err != nil {
			return nil, err
		}
		defer scannerNodes.Close()
		for scannerNodes.Scan() {
			obj := scannerNodes.Object()
			if obj.ObjectID().Type() != "node" {
				continue
			}
			node := obj.(*osm.Node)
			if _, ok := nodesSeen[node.ID]; !ok {
				continue
			}
			delete(nodesSeen, node.ID)
			net.AddNode(NewNode(node.ID, node.Lat, node.Lon))
		}
		if err := scannerNodes.Err(); err != nil {
			return nil, err
		}
	}
	if verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
	}

	/* Assemble ways into the network */
	missing := 0
	for _, raw := range ways {
		nodeIDs := make([]osm.NodeID, 0, len(raw.nodes))
		for _, nodeID := range raw.nodes {
			if net.Node(nodeID) == nil {
				missing++
				continue
			}
			nodeIDs = append(nodeIDs, nodeID)
		}
		if len(nodeIDs) < 2 {
			continue
		}
		// Normalize west to east so merging and splitting can rely on a
		// deterministic node order.
		first := net.Node(nodeIDs[0])
		last := net.Node(nodeIDs[len(nodeIDs)-1])
		if first.Lon() > last.Lon() {
			nodeIDs = reversedNodeIDs(nodeIDs)
		}
		street := NewStreet(raw.id, nodeIDs, raw.class)
		street.Oneway = raw.oneway
		street.Ref = raw.ref
		net.AddWay(street)
	}
	// Nodes whose ways all got dropped are isolated now.
	for _, node := range net.Nodes() {
		if len(node.wayIDs) == 0 {
			delete(net.nodes, node.ID)
		}
	}
	if verbose {
		if missing > 0 {
			fmt.Printf("\t[WARNING]: Dropped %d node references missing from the extract\n", missing)
		}
		fmt.Printf("Number of ways: %d\n", len(net.ways))
		fmt.Printf("Number of nodes: %d\n", len(net.nodes))
	}
	return net, nil
}
