package osm2sidewalk

import (
	"testing"

	"github.com/paulmach/osm"
)

func zigzagNetwork(t *testing.T, n int) (*Network, *Street) {
	t.Helper()
	net := NewNetwork()
	ids := make([]osm.NodeID, 0, n)
	for i := 0; i < n; i++ {
		lat := 0.0
		if i%2 == 1 {
			lat = 0.00001
		}
		node := NewNode(osm.NodeID(i+1), lat, float64(i)*0.001)
		net.AddNode(node)
		ids = append(ids, node.ID)
	}
	way := NewStreet(100, ids, "residential")
	net.AddWay(way)
	return net, way
}

func TestSimplifyWayReducesNodeCount(t *testing.T) {
	net, way := zigzagNetwork(t, 20)
	if err := SimplifyWay(net, way.ID, 0.2); err != nil {
		t.Fatal(err)
	}
	if got := float64(len(way.Nodes)) / 20.0; got > 0.2 {
		t.Errorf("Expected the surviving fraction within 0.2, got %f (%d nodes)", got, len(way.Nodes))
	}
	// The decimation stops as soon as the fraction is reached; it must not
	// keep removing past it.
	if len(way.Nodes) < 4 {
		t.Errorf("Expected at least 4 surviving nodes for fraction 0.2 of 20, got %d", len(way.Nodes))
	}
	if len(way.Nodes) < 2 {
		t.Fatalf("Way degenerated to %d nodes", len(way.Nodes))
	}
	if way.Nodes[0] != 1 || way.Nodes[len(way.Nodes)-1] != 20 {
		t.Errorf("Endpoints must always survive, got %v", way.Nodes)
	}
	if err := net.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
}

func TestSimplifyWayDropsOrphanedNodes(t *testing.T) {
	net, way := zigzagNetwork(t, 10)
	if err := SimplifyWay(net, way.ID, 0.2); err != nil {
		t.Fatal(err)
	}
	if len(net.nodes) != len(way.Nodes) {
		t.Errorf("Expected node store in sync with the way, %d stored vs %d referenced", len(net.nodes), len(way.Nodes))
	}
}

func TestSimplifyWayKeepsSharedNodesInOtherWays(t *testing.T) {
	net, way := zigzagNetwork(t, 10)
	// Node 5 also anchors a side way; simplification may remove it from
	// the zigzag but must not delete it from the network.
	side := NewNode(0, 0.001, 0.004)
	net.AddNode(side)
	net.AddWay(NewStreet(0, []osm.NodeID{5, side.ID}, "residential"))
	if err := SimplifyWay(net, way.ID, 0.2); err != nil {
		t.Fatal(err)
	}
	if net.Node(5) == nil {
		t.Error("Node 5 is still referenced by the side way and must survive")
	}
	if err := net.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
}

func TestSimplifyWayShortWayUntouched(t *testing.T) {
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{1: {0, 0}, 2: {0.0001, 0.001}},
		map[osm.WayID][]osm.NodeID{10: {1, 2}},
	)
	if err := SimplifyWay(net, 10, 0.1); err != nil {
		t.Fatal(err)
	}
	if len(net.Way(10).Nodes) != 2 {
		t.Errorf("A two-node way must not be simplified, got %v", net.Way(10).Nodes)
	}
}

func TestSimplifyWayOrderPreserved(t *testing.T) {
	net, way := zigzagNetwork(t, 12)
	if err := SimplifyWay(net, way.ID, 0.5); err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(way.Nodes); i++ {
		if way.Nodes[i] <= way.Nodes[i-1] {
			t.Fatalf("Survivors must keep the original order, got %v", way.Nodes)
		}
	}
}

func TestSimplifyWayMissingWay(t *testing.T) {
	net := NewNetwork()
	if err := SimplifyWay(net, 42, 0.1); err == nil {
		t.Error("Expected an error for a missing way")
	}
}
