package osm2sidewalk

import (
	"testing"

	"github.com/paulmach/osm"
)

func TestFindParallelPairsTwoStraightWays(t *testing.T) {
	// Two horizontal ways 0.0002 degrees apart, buffers half that wide.
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{
			1: {0, 0}, 2: {0, 0.001},
			3: {0.0002, 0}, 4: {0.0002, 0.001},
		},
		map[osm.WayID][]osm.NodeID{10: {1, 2}, 11: {3, 4}},
	)
	pairs := FindParallelPairs(net, 0.00015, false)
	if len(pairs) != 1 {
		t.Fatalf("Expected exactly one parallel pair, got %d", len(pairs))
	}
	pair := pairs[0]
	if !(pair[0] == 10 && pair[1] == 11) && !(pair[0] == 11 && pair[1] == 10) {
		t.Errorf("Expected pair of ways 10 and 11, got %v", pair)
	}
}

func TestFindParallelPairsBuffersTooNarrow(t *testing.T) {
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{
			1: {0, 0}, 2: {0, 0.001},
			3: {0.0002, 0}, 4: {0.0002, 0.001},
		},
		map[osm.WayID][]osm.NodeID{10: {1, 2}, 11: {3, 4}},
	)
	pairs := FindParallelPairs(net, 0.00005, false)
	if len(pairs) != 0 {
		t.Errorf("Expected no pairs with narrow buffers, got %v", pairs)
	}
}

func TestFindParallelPairsPerpendicularWays(t *testing.T) {
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{
			1: {0, 0}, 2: {0, 0.001},
			3: {-0.0005, 0.0005}, 4: {0.0005, 0.0005},
		},
		map[osm.WayID][]osm.NodeID{10: {1, 2}, 11: {3, 4}},
	)
	pairs := FindParallelPairs(net, 0.0002, false)
	if len(pairs) != 0 {
		t.Errorf("Expected no pairs for crossing perpendicular ways, got %v", pairs)
	}
}

func TestFindParallelPairsDivergingAtJunction(t *testing.T) {
	// Two ways meet at node 1 and fan out to opposite sides: a junction,
	// not a dual carriageway, even though the buffers overlap around the
	// shared node.
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{
			1: {0, 0},
			2: {0.00005, 0.001},
			3: {0.00005, -0.001},
		},
		map[osm.WayID][]osm.NodeID{10: {1, 2}, 11: {3, 1}},
	)
	pairs := FindParallelPairs(net, 0.0002, false)
	if len(pairs) != 0 {
		t.Errorf("Expected diverging ways to be filtered out, got %v", pairs)
	}
}

func TestFindParallelPairsContinuationAtSharedNode(t *testing.T) {
	// Ways 10 and 11 continue through node 1 in a near-straight line. The
	// bearing out of the shared node is taken along each way's own geometry:
	// roughly 60 degrees into way 10 and -120 into way 11, an absolute
	// difference under 90, so the pair stays.
	net := buildNetwork(t,
		map[osm.NodeID][2]float64{
			1: {0, 0},
			2: {0.00087, 0.0005},
			3: {-0.00087, -0.0005},
		},
		map[osm.WayID][]osm.NodeID{10: {1, 2}, 11: {3, 1}},
	)
	pairs := FindParallelPairs(net, 0.0002, false)
	if len(pairs) != 1 {
		t.Fatalf("Expected the continuing pair to be kept, got %v", pairs)
	}
}

func TestFindParallelPairsOrderIndependent(t *testing.T) {
	coords := map[osm.NodeID][2]float64{
		1: {0, 0}, 2: {0, 0.001},
		3: {0.0002, 0}, 4: {0.0002, 0.001},
	}
	netA := buildNetwork(t, coords, map[osm.WayID][]osm.NodeID{10: {1, 2}, 11: {3, 4}})
	netB := buildNetwork(t, coords, map[osm.WayID][]osm.NodeID{11: {3, 4}, 10: {1, 2}})
	pairsA := FindParallelPairs(netA, 0.00015, false)
	pairsB := FindParallelPairs(netB, 0.00015, false)
	if len(pairsA) != len(pairsB) {
		t.Fatalf("Pair count differs between insertion orders: %d vs %d", len(pairsA), len(pairsB))
	}
}
