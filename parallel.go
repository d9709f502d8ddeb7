package osm2sidewalk

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/tidwall/rtree"
)

const (
	// Half-width of the oriented buffer around each way, in geographic
	// degrees. Increasing it merges parallel ways that are further apart.
	defaultBufferWidth = 0.00009

	// Pairs are parallel candidates when their bearings differ by less
	// than parallelAngleLow or more than parallelAngleHigh (mod 180).
	parallelAngleLow  = 10.0
	parallelAngleHigh = 170.0

	// Ways sharing an endpoint diverge at a junction, rather than run
	// alongside each other, when their bearings out of the shared node
	// differ by more than this.
	divergenceAngle = 90.0
)

// streetBox is the oriented buffer rectangle around a way's endpoint
// chord, tagged with the way's bearing and endpoint nodes.
type streetBox struct {
	wayID     osm.WayID
	corners   [4]orb.Point
	angle     float64
	endpoints [2]osm.NodeID
}

func (box *streetBox) bounds() (min, max [2]float64) {
	min = [2]float64{box.corners[0][0], box.corners[0][1]}
	max = min
	for _, c := range box.corners[1:] {
		if c[0] < min[0] {
			min[0] = c[0]
		}
		if c[1] < min[1] {
			min[1] = c[1]
		}
		if c[0] > max[0] {
			max[0] = c[0]
		}
		if c[1] > max[1] {
			max[1] = c[1]
		}
	}
	return min, max
}

// buildStreetBoxes constructs one buffer rectangle per way: both endpoints
// offset sideways by the perpendicular of the endpoint-to-endpoint
// direction, scaled to the buffer half-width.
func buildStreetBoxes(net *Network, halfWidth float64) []streetBox {
	boxes := make([]streetBox, 0, len(net.ways))
	for _, way := range net.Ways() {
		if len(way.Nodes) < 2 {
			continue
		}
		start := net.Node(way.Nodes[0])
		end := net.Node(way.Nodes[len(way.Nodes)-1])
		if start == nil || end == nil {
			continue
		}
		vector := vectorTo(start.Point(), end.Point(), true)
		if vector[0] == 0 && vector[1] == 0 {
			// Closed loop or coincident endpoints: no orientation to buffer along.
			continue
		}
		perp := orb.Point{vector[1] * halfWidth, -vector[0] * halfWidth}
		boxes = append(boxes, streetBox{
			wayID: way.ID,
			corners: [4]orb.Point{
				{start.Point()[0] + perp[0], start.Point()[1] + perp[1]},
				{end.Point()[0] + perp[0], end.Point()[1] + perp[1]},
				{end.Point()[0] - perp[0], end.Point()[1] - perp[1]},
				{start.Point()[0] - perp[0], start.Point()[1] - perp[1]},
			},
			angle:     angleDegrees(start.Point(), end.Point()),
			endpoints: [2]osm.NodeID{way.Nodes[0], way.Nodes[len(way.Nodes)-1]},
		})
	}
	return boxes
}

// FindParallelPairs returns every unordered pair of ways whose buffer
// rectangles overlap and whose bearings are near-parallel. Pairs that only
// touch at a shared endpoint and diverge from it are filtered out. The
// result is independent of which way of a pair is labeled first.
func FindParallelPairs(net *Network, halfWidth float64, verbose bool) [][2]osm.WayID {
	if verbose {
		fmt.Printf("Searching for parallel street segments... ")
	}
	st := time.Now()

	boxes := buildStreetBoxes(net, halfWidth)
	var index rtree.RTreeG[int]
	for i := range boxes {
		min, max := boxes[i].bounds()
		index.Insert(min, max, i)
	}

	pairs := [][2]osm.WayID{}
	for i := range boxes {
		min, max := boxes[i].bounds()
		index.Search(min, max, func(_, _ [2]float64, j int) bool {
			// Each unordered pair is visited once, from its lower index.
			if j <= i {
				return true
			}
			if !parallelCandidate(&boxes[i], &boxes[j]) {
				return true
			}
			if net.divergeAtSharedNode(&boxes[i], &boxes[j]) {
				return true
			}
			pairs = append(pairs, [2]osm.WayID{boxes[i].wayID, boxes[j].wayID})
			return true
		})
	}
	if verbose {
		fmt.Printf("Done in %v\n\tParallel pairs: %d\n", time.Since(st), len(pairs))
	}
	return pairs
}

func parallelCandidate(a, b *streetBox) bool {
	angleDiff := math.Mod((a.angle-b.angle)+360.0, 180.0)
	if angleDiff >= parallelAngleLow && angleDiff <= parallelAngleHigh {
		return false
	}
	return quadsIntersect(a.corners, b.corners)
}

// divergeAtSharedNode reports whether the two ways merely touch at a
// junction: they share an endpoint node and their bearings from it to the
// next-adjacent nodes point apart.
func (net *Network) divergeAtSharedNode(a, b *streetBox) bool {
	wayA := net.Way(a.wayID)
	wayB := net.Way(b.wayID)
	if wayA == nil || wayB == nil {
		return true
	}
	var sharedID osm.NodeID
	shared := false
	for _, na := range a.endpoints {
		for _, nb := range b.endpoints {
			if na == nb {
				sharedID = na
				shared = true
			}
		}
	}
	if !shared {
		return false
	}
	sharedNode := net.Node(sharedID)
	if sharedNode == nil {
		return true
	}
	adjNodeA := net.adjacentInWay(wayA, sharedID)
	adjNodeB := net.adjacentInWay(wayB, sharedID)
	if adjNodeA == nil || adjNodeB == nil {
		return true
	}
	angleA := angleDegrees(sharedNode.Point(), adjNodeA.Point())
	angleB := angleDegrees(sharedNode.Point(), adjNodeB.Point())
	return math.Abs(math.Abs(angleA)-math.Abs(angleB)) > divergenceAngle
}
