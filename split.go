package osm2sidewalk

import (
	"fmt"
	"time"

	"github.com/paulmach/osm"
)

// SplitAtIntersections cuts every way at its interior junction nodes so
// that afterwards junctions only ever appear at way endpoints. Junction
// nodes are duplicated into both sub-ways, so concatenating the pieces
// reproduces the original sequence. Running it again is a no-op.
func SplitAtIntersections(net *Network, verbose bool) {
	if verbose {
		fmt.Printf("Splitting streets at intersections... ")
	}
	st := time.Now()
	splits := 0
	for _, way := range net.Ways() {
		if splitWay(net, way) {
			splits++
		}
	}
	if verbose {
		fmt.Printf("Done in %v\n\tSplit ways: %d\n", time.Since(st), splits)
	}
}

func splitWay(net *Network, way *Street) bool {
	junctionIdx := []int{}
	for i, nodeID := range way.Nodes {
		node := net.Node(nodeID)
		if node != nil && node.IsIntersection() {
			junctionIdx = append(junctionIdx, i)
		}
	}
	last := len(way.Nodes) - 1

	// A lone junction at an endpoint, or junctions at both endpoints and
	// nowhere else, cut nothing.
	switch len(junctionIdx) {
	case 0:
		return false
	case 1:
		if junctionIdx[0] == 0 || junctionIdx[0] == last {
			return false
		}
	case 2:
		if junctionIdx[0] == 0 && junctionIdx[1] == last {
			return false
		}
	}

	prev := 0
	pieces := [][]osm.NodeID{}
	for _, idx := range junctionIdx {
		if idx == 0 || idx == last {
			continue
		}
		pieces = append(pieces, copyNodeIDs(way.Nodes[prev:idx+1]))
		prev = idx
	}
	if len(pieces) == 0 {
		return false
	}
	pieces = append(pieces, copyNodeIDs(way.Nodes[prev:]))

	for _, piece := range pieces {
		sub := NewStreet(0, piece, way.Type)
		sub.Oneway = way.Oneway
		sub.Ref = way.Ref
		net.AddWay(sub)
	}
	// The originals' nodes all live on in the sub-ways; removal only drops
	// the old way id from their incident sets.
	_ = net.RemoveWay(way.ID)
	return true
}

// CleanTwoWayNodes fuses the two ways meeting at every degree-2 seam node
// into one continuous way. The four orientation cases come from the
// west-to-east node normalization: each way can point into or out of the
// seam. The fused way keeps the common road class when both sides agree
// and degrades to a footway otherwise.
func CleanTwoWayNodes(net *Network, verbose bool) {
	if verbose {
		fmt.Printf("Fusing ways at pass-through nodes... ")
	}
	st := time.Now()
	fused := 0
	for _, node := range net.Nodes() {
		if net.Node(node.ID) == nil {
			// Consumed by an earlier fuse in this pass.
			continue
		}
		if len(node.wayIDs) != 2 {
			continue
		}
		if fuseAtNode(net, node) {
			fused++
		}
	}
	if verbose {
		fmt.Printf("Done in %v\n\tFused seams: %d\n", time.Since(st), fused)
	}
}

func fuseAtNode(net *Network, node *Node) bool {
	way1 := net.Way(node.wayIDs[0])
	way2 := net.Way(node.wayIDs[1])
	if way1 == nil || way2 == nil || way1.ID == way2.ID {
		return false
	}
	if len(way1.Nodes) < 2 || len(way2.Nodes) < 2 {
		return false
	}
	idx1 := way1.indexOf(node.ID)
	idx2 := way2.indexOf(node.ID)
	// Only endpoint seams are fused; a mid-way occurrence means the node
	// should have been a split point instead.
	atEnd := func(way *Street, idx int) bool {
		return idx == 0 || idx == len(way.Nodes)-1
	}
	if !atEnd(way1, idx1) || !atEnd(way2, idx2) {
		return false
	}

	var combined []osm.NodeID
	switch {
	case idx1 == 0 && idx2 == 0:
		combined = append(reversedNodeIDs(way1.Nodes), way2.Nodes[1:]...)
	case idx1 != 0 && idx2 == 0:
		combined = append(copyNodeIDs(way1.Nodes), way2.Nodes[1:]...)
	case idx1 == 0 && idx2 != 0:
		combined = append(copyNodeIDs(way2.Nodes), way1.Nodes[1:]...)
	default:
		combined = append(copyNodeIDs(way1.Nodes), reversedNodeIDs(way2.Nodes)[1:]...)
	}

	wayType := WayTypeFootway
	if way1.Type == way2.Type {
		wayType = way1.Type
	}
	fusedWay := NewStreet(0, combined, wayType)
	fusedWay.Oneway = way1.Oneway && way2.Oneway
	if way1.Ref == way2.Ref {
		fusedWay.Ref = way1.Ref
	}
	net.AddWay(fusedWay)
	_ = net.RemoveWay(way1.ID)
	_ = net.RemoveWay(way2.ID)
	return true
}
