package osm2sidewalk

import (
	"fmt"
	"time"

	"github.com/paulmach/osm"
)

// defaultMergeNodeThreshold is the great-circle distance, in kilometers,
// under which an interior node is considered redundant next to a way
// endpoint.
const defaultMergeNodeThreshold = 0.015

// MergeCloseNodes removes interior nodes that sit too close to a way's
// endpoints. The walk goes inward from both ends and stops at the first
// node that keeps its distance, so a dense middle section is untouched.
// Endpoints themselves are never removed, and a way never drops below two
// nodes. The threshold is in kilometers.
func MergeCloseNodes(net *Network, threshold float64, verbose bool) {
	if verbose {
		fmt.Printf("Merging nodes close to way endpoints... ")
	}
	st := time.Now()
	removed := 0
	for _, way := range net.Ways() {
		removed += mergeCloseNodesOfWay(net, way, threshold)
	}
	if verbose {
		fmt.Printf("Done in %v\n\tRemoved nodes: %d\n", time.Since(st), removed)
	}
}

func mergeCloseNodesOfWay(net *Network, way *Street, threshold float64) int {
	removed := 0
	if len(way.Nodes) <= 2 {
		return removed
	}

	startID := way.Nodes[0]
	for _, nodeID := range copyNodeIDs(way.Nodes[1 : len(way.Nodes)-1]) {
		if !net.nodesCloserThan(startID, nodeID, threshold) {
			break
		}
		if err := net.RemoveNode(nodeID); err == nil {
			removed++
		}
	}

	if len(way.Nodes) <= 2 {
		return removed
	}
	endID := way.Nodes[len(way.Nodes)-1]
	interior := copyNodeIDs(way.Nodes[1 : len(way.Nodes)-1])
	for i := len(interior) - 1; i >= 0; i-- {
		if !net.nodesCloserThan(endID, interior[i], threshold) {
			break
		}
		if len(way.Nodes) <= 2 {
			break
		}
		if err := net.RemoveNode(interior[i]); err == nil {
			removed++
		}
	}
	return removed
}

// nodesCloserThan reports whether two nodes are within the threshold, in
// kilometers. Missing nodes count as far apart.
func (net *Network) nodesCloserThan(a, b osm.NodeID, threshold float64) bool {
	nodeA := net.Node(a)
	nodeB := net.Node(b)
	if nodeA == nil || nodeB == nil {
		return false
	}
	return greatCircleDistance(nodeA.Point(), nodeB.Point()) < threshold
}
