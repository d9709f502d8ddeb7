package osm2sidewalk

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// Node is a geolocated point of the street network. It does not own the
// ways passing through it; it only keeps the set of incident way ids.
type Node struct {
	ID osm.NodeID

	geom   orb.Point
	wayIDs []osm.WayID

	// Minimum number of incident ways for the node to count as an
	// intersection. Starts at 2 and is raised to 3 once adjacency is
	// rebuilt from split ways.
	minIntersectionCardinality int
}

// NewNode creates a node at the given geographic position. Pass zero id to
// let the network assign one on AddNode.
func NewNode(id osm.NodeID, lat, lon float64) *Node {
	return &Node{
		ID:                         id,
		geom:                       orb.Point{lon, lat},
		minIntersectionCardinality: 2,
	}
}

// Point returns the node position as (Lon == X, Lat == Y).
func (node *Node) Point() orb.Point {
	return node.geom
}

// Lat returns latitude of the node
func (node *Node) Lat() float64 {
	return node.geom[1]
}

// Lon returns longitude of the node
func (node *Node) Lon() float64 {
	return node.geom[0]
}

// WayIDs returns the set of incident way ids. Order carries no meaning.
func (node *Node) WayIDs() []osm.WayID {
	return node.wayIDs
}

// IsIntersection reports whether enough ways meet at this node for it to be
// a junction.
func (node *Node) IsIntersection() bool {
	return len(node.wayIDs) >= node.minIntersectionCardinality
}

func (node *Node) hasWay(wayID osm.WayID) bool {
	for _, id := range node.wayIDs {
		if id == wayID {
			return true
		}
	}
	return false
}

// appendWay registers an incident way. Set semantics: duplicates are ignored.
func (node *Node) appendWay(wayID osm.WayID) {
	if node.hasWay(wayID) {
		return
	}
	node.wayIDs = append(node.wayIDs, wayID)
}

func (node *Node) removeWay(wayID osm.WayID) {
	for i, id := range node.wayIDs {
		if id == wayID {
			node.wayIDs = append(node.wayIDs[:i], node.wayIDs[i+1:]...)
			return
		}
	}
}
