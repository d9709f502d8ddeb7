package osm2sidewalk

import (
	"github.com/paulmach/osm"
)

// WayTypeFootway marks ways synthesized by the merger: derived pedestrian
// paths rather than original carriageways.
const WayTypeFootway = "footway"

// defaultDistanceToSidewalk is the assumed offset between a carriageway
// centerline and its sidewalk, in geographic degrees.
const defaultDistanceToSidewalk = 0.00009

// Street is a single way of the network: an ordered polyline of node ids.
// Order matters for merging and splitting.
type Street struct {
	ID    osm.WayID
	Nodes []osm.NodeID

	// Type is the road class tag of the source way (primary, secondary,
	// ...) or WayTypeFootway for synthesized ways.
	Type   string
	Oneway bool
	Ref    string

	distanceToSidewalk float64
}

// NewStreet creates a way over the given ordered node ids. Pass zero id to
// let the network assign one on AddWay.
func NewStreet(id osm.WayID, nodeIDs []osm.NodeID, wayType string) *Street {
	return &Street{
		ID:                 id,
		Nodes:              nodeIDs,
		Type:               wayType,
		distanceToSidewalk: defaultDistanceToSidewalk,
	}
}

func (street *Street) indexOf(nodeID osm.NodeID) int {
	for i, id := range street.Nodes {
		if id == nodeID {
			return i
		}
	}
	return -1
}

func (street *Street) containsNode(nodeID osm.NodeID) bool {
	return street.indexOf(nodeID) >= 0
}

// removeNode drops every occurrence of the given node id from the sequence.
func (street *Street) removeNode(nodeID osm.NodeID) {
	filtered := street.Nodes[:0]
	for _, id := range street.Nodes {
		if id != nodeID {
			filtered = append(filtered, id)
		}
	}
	street.Nodes = filtered
}

// swapNode replaces every occurrence of one node id with another.
func (street *Street) swapNode(from, to osm.NodeID) {
	for i, id := range street.Nodes {
		if id == from {
			street.Nodes[i] = to
		}
	}
}

// reverse flips the node order in place.
func (street *Street) reverse() {
	for i, j := 0, len(street.Nodes)-1; i < j; i, j = i+1, j-1 {
		street.Nodes[i], street.Nodes[j] = street.Nodes[j], street.Nodes[i]
	}
}

// reversedNodeIDs returns a reversed copy of the given id sequence.
func reversedNodeIDs(ids []osm.NodeID) []osm.NodeID {
	out := make([]osm.NodeID, len(ids))
	for i, id := range ids {
		out[len(ids)-i-1] = id
	}
	return out
}

// copyNodeIDs returns a copy of the given id sequence.
func copyNodeIDs(ids []osm.NodeID) []osm.NodeID {
	out := make([]osm.NodeID, len(ids))
	copy(out, ids)
	return out
}
