package osm2sidewalk

import (
	"testing"

	"github.com/paulmach/osm"
)

// 0.001 degrees of longitude at the equator is roughly 111 meters, well
// over the 15 meter (0.015 km) default threshold; 0.0001 degrees is not.

func TestMergeCloseNodesFromStart(t *testing.T) {
	// Nodes 2 and 3 crowd the start; node 4 keeps its distance and stops
	// the walk even though node 5 is interior too.
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{
			1: {0, 0},
			2: {0, 0.00005},
			3: {0, 0.0001},
			4: {0, 0.0005},
			5: {0, 0.00055},
			6: {0, 0.002},
		},
		map[osm.WayID][]osm.NodeID{10: {1, 2, 3, 4, 5, 6}},
	)
	MergeCloseNodes(net, defaultMergeNodeThreshold, false)
	way := net.Way(10)
	expected := []osm.NodeID{1, 4, 5, 6}
	if len(way.Nodes) != len(expected) {
		t.Fatalf("Expected nodes %v, got %v", expected, way.Nodes)
	}
	for i := range expected {
		if way.Nodes[i] != expected[i] {
			t.Fatalf("Expected nodes %v, got %v", expected, way.Nodes)
		}
	}
	if net.Node(2) != nil || net.Node(3) != nil {
		t.Error("Merged-away nodes must be deleted from the network")
	}
	if err := net.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
}

func TestMergeCloseNodesFromEnd(t *testing.T) {
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{
			1: {0, 0},
			2: {0, 0.0005},
			3: {0, 0.00095},
			4: {0, 0.001},
		},
		map[osm.WayID][]osm.NodeID{10: {1, 2, 3, 4}},
	)
	MergeCloseNodes(net, defaultMergeNodeThreshold, false)
	way := net.Way(10)
	if len(way.Nodes) != 3 || way.Nodes[0] != 1 || way.Nodes[1] != 2 || way.Nodes[2] != 4 {
		t.Errorf("Expected nodes [1 2 4], got %v", way.Nodes)
	}
	if err := net.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
}

func TestMergeCloseNodesSparseWayWithOneClosePair(t *testing.T) {
	// Nodes a healthy 0.001 degrees apart, except one node 0.0001 degrees
	// from the start. Only that one goes.
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{
			1: {0, 0},
			2: {0, 0.0001},
			3: {0, 0.0011},
			4: {0, 0.0021},
		},
		map[osm.WayID][]osm.NodeID{10: {1, 2, 3, 4}},
	)
	MergeCloseNodes(net, defaultMergeNodeThreshold, false)
	way := net.Way(10)
	if len(way.Nodes) != 3 || way.Nodes[0] != 1 || way.Nodes[1] != 3 || way.Nodes[2] != 4 {
		t.Errorf("Expected nodes [1 3 4], got %v", way.Nodes)
	}
}

func TestMergeCloseNodesKeepsEndpoints(t *testing.T) {
	// Every interior node is close to the start; the way still ends up
	// with its two endpoints intact.
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{
			1: {0, 0},
			2: {0, 0.00003},
			3: {0, 0.00006},
			4: {0, 0.0001},
		},
		map[osm.WayID][]osm.NodeID{10: {1, 2, 3, 4}},
	)
	MergeCloseNodes(net, defaultMergeNodeThreshold, false)
	way := net.Way(10)
	if len(way.Nodes) != 2 || way.Nodes[0] != 1 || way.Nodes[1] != 4 {
		t.Errorf("Expected nodes [1 4], got %v", way.Nodes)
	}
	if err := net.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
}

func TestNodesCloserThan(t *testing.T) {
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{1: {0, 0}, 2: {0, 0.0001}, 3: {0, 0.001}},
		map[osm.WayID][]osm.NodeID{10: {1, 2, 3}},
	)
	if !net.nodesCloserThan(1, 2, defaultMergeNodeThreshold) {
		t.Error("Nodes 0.0001 degrees apart are within the 15 meter threshold")
	}
	if net.nodesCloserThan(1, 3, defaultMergeNodeThreshold) {
		t.Error("Nodes 0.001 degrees apart are beyond the 15 meter threshold")
	}
	if net.nodesCloserThan(1, 42, defaultMergeNodeThreshold) {
		t.Error("A missing node must count as far apart")
	}
}

func TestMergeCloseNodesTwoNodeWayUntouched(t *testing.T) {
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{1: {0, 0}, 2: {0, 0.00001}},
		map[osm.WayID][]osm.NodeID{10: {1, 2}},
	)
	MergeCloseNodes(net, defaultMergeNodeThreshold, false)
	way := net.Way(10)
	if len(way.Nodes) != 2 {
		t.Errorf("A two-node way must keep both nodes, got %v", way.Nodes)
	}
}
