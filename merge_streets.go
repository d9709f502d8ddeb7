package osm2sidewalk

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// ErrEmptyOverlap is returned when two allegedly parallel ways have no
// genuinely overlapping sub-segment to merge.
var ErrEmptyOverlap = errors.New("no overlapping sub-segment")

// segmentation is one way cut against the overlap window: the (possibly
// empty) leading flank, the overlapping run, and the trailing flank.
// Non-empty flanks carry the boundary node of the overlap so that
// connectivity survives the cut.
type segmentation struct {
	leading  []osm.NodeID
	overlap  []osm.NodeID
	trailing []osm.NodeID
}

// segmentParallelStreets finds the part of two parallel ways that actually
// runs alongside. Every node of both ways is projected onto the first
// way's endpoint-to-endpoint axis; in the joint projection order, the
// window where consecutive nodes alternate between the two ways is the
// overlap. The second way is reversed in place first when its node order
// disagrees with the projection order.
func segmentParallelStreets(net *Network, s1, s2 *Street) (subset []osm.NodeID, seg1, seg2 segmentation, err error) {
	base0 := net.Node(s1.Nodes[0])
	base1 := net.Node(s1.Nodes[len(s1.Nodes)-1])
	if base0 == nil || base1 == nil {
		return nil, seg1, seg2, errors.Wrapf(ErrNodeNotFound, "projection axis of way %d", s1.ID)
	}
	baseVector := vectorTo(base0.Point(), base1.Point(), true)

	projections := make(map[osm.NodeID]float64, len(s1.Nodes)+len(s2.Nodes))
	for _, nodeID := range append(copyNodeIDs(s1.Nodes), s2.Nodes...) {
		node := net.Node(nodeID)
		if node == nil {
			return nil, seg1, seg2, errors.Wrapf(ErrNodeNotFound, "projecting node %d", nodeID)
		}
		projections[nodeID] = dot(node.Point(), baseVector)
	}

	// Normalize the second way's orientation against the axis.
	sorted2 := copyNodeIDs(s2.Nodes)
	sort.SliceStable(sorted2, func(i, j int) bool {
		return projections[sorted2[i]] < projections[sorted2[j]]
	})
	if s2.Nodes[0] != sorted2[0] {
		s2.reverse()
	}

	allNids := append(copyNodeIDs(s1.Nodes), s2.Nodes...)
	sort.SliceStable(allNids, func(i, j int) bool {
		return projections[allNids[i]] < projections[allNids[j]]
	})

	inS1 := make(map[osm.NodeID]struct{}, len(s1.Nodes))
	for _, nodeID := range s1.Nodes {
		inS1[nodeID] = struct{}{}
	}
	belongs := func(nodeID osm.NodeID) bool {
		_, ok := inS1[nodeID]
		return ok
	}

	beginIdx, endIdx := -1, -1
	for i := 0; i < len(allNids)-1; i++ {
		if belongs(allNids[i]) != belongs(allNids[i+1]) {
			if beginIdx < 0 {
				beginIdx = i
			}
			endIdx = i
		}
	}
	if beginIdx < 0 || beginIdx == endIdx {
		return nil, seg1, seg2, errors.Wrapf(ErrEmptyOverlap, "ways %d and %d", s1.ID, s2.ID)
	}
	subset = copyNodeIDs(allNids[beginIdx:endIdx])

	s1Begin, s2Begin := allNids[beginIdx], allNids[beginIdx+1]
	if !belongs(s1Begin) {
		s1Begin, s2Begin = s2Begin, s1Begin
	}
	s1End, s2End := allNids[endIdx], allNids[endIdx+1]
	if !belongs(s1End) {
		s1End, s2End = s2End, s1End
	}

	s1BeginIdx, s1EndIdx := s1.indexOf(s1Begin), s1.indexOf(s1End)
	s2BeginIdx, s2EndIdx := s2.indexOf(s2Begin), s2.indexOf(s2End)
	if s1BeginIdx < 0 || s1EndIdx < s1BeginIdx || s2BeginIdx < 0 || s2EndIdx < s2BeginIdx {
		return nil, seg1, seg2, errors.Wrapf(ErrEmptyOverlap, "projection order of ways %d and %d is inconsistent", s1.ID, s2.ID)
	}

	seg1 = segmentation{
		leading:  copyNodeIDs(s1.Nodes[:s1BeginIdx]),
		overlap:  copyNodeIDs(s1.Nodes[s1BeginIdx : s1EndIdx+1]),
		trailing: copyNodeIDs(s1.Nodes[s1EndIdx+1:]),
	}
	seg2 = segmentation{
		leading:  copyNodeIDs(s2.Nodes[:s2BeginIdx]),
		overlap:  copyNodeIDs(s2.Nodes[s2BeginIdx : s2EndIdx+1]),
		trailing: copyNodeIDs(s2.Nodes[s2EndIdx+1:]),
	}

	// Flanks keep the overlap boundary node so the cut stays connected.
	if len(seg1.leading) > 0 {
		seg1.leading = append(seg1.leading, seg1.overlap[0])
	}
	if len(seg1.trailing) > 0 {
		seg1.trailing = append([]osm.NodeID{seg1.overlap[len(seg1.overlap)-1]}, seg1.trailing...)
	}
	if len(seg2.leading) > 0 {
		if len(seg2.overlap) > 0 {
			seg2.leading = append(seg2.leading, seg2.overlap[0])
		} else if len(seg2.trailing) > 0 {
			seg2.leading = append(seg2.leading, seg2.trailing[0])
		}
	}
	if len(seg2.trailing) > 0 {
		if len(seg2.overlap) > 0 {
			seg2.trailing = append([]osm.NodeID{seg2.overlap[len(seg2.overlap)-1]}, seg2.trailing...)
		} else if len(seg2.leading) > 0 {
			seg2.trailing = append([]osm.NodeID{seg2.leading[len(seg2.leading)-1]}, seg2.trailing...)
		}
	}

	return subset, seg1, seg2, nil
}

// MergeParallelPairs replaces every parallel pair by a single synthesized
// centerline way, re-emits the non-overlapping flanks as their own ways,
// and re-anchors outside ways that were attached to the removed originals.
// Best-effort: a failing pair is logged and skipped, the rest proceeds.
func MergeParallelPairs(net *Network, pairs [][2]osm.WayID, simplifyThreshold float64, verbose bool) {
	if verbose {
		fmt.Printf("Merging parallel street segments... ")
	}
	st := time.Now()
	merges := 0
	for _, pair := range pairs {
		if err := mergeParallelPair(net, pair, simplifyThreshold, verbose); err != nil {
			if verbose {
				fmt.Printf("\n\t[WARNING]: Merge of ways %d and %d skipped: %s", pair[0], pair[1], err)
			}
			continue
		}
		merges++
	}
	if verbose {
		fmt.Printf("\nDone in %v\n\tMerged pairs: %d\n", time.Since(st), merges)
	}
}

func mergeParallelPair(net *Network, pair [2]osm.WayID, simplifyThreshold float64, verbose bool) error {
	s1 := net.Way(pair[0])
	s2 := net.Way(pair[1])
	if s1 == nil || s2 == nil {
		return errors.Wrapf(ErrWayNotFound, "pair (%d, %d)", pair[0], pair[1])
	}

	subset, seg1, seg2, err := segmentParallelStreets(net, s1, s2)
	if err != nil {
		return err
	}
	if len(seg1.overlap) == 0 || len(seg2.overlap) == 0 {
		return errors.Wrapf(ErrEmptyOverlap, "overlap window of pair (%d, %d)", pair[0], pair[1])
	}

	s1Start := net.Node(seg1.overlap[0])
	s1End := net.Node(seg1.overlap[len(seg1.overlap)-1])
	s2Start := net.Node(seg2.overlap[0])
	s2End := net.Node(seg2.overlap[len(seg2.overlap)-1])
	if s1Start == nil || s1End == nil || s2Start == nil || s2End == nil {
		return errors.Wrap(ErrNodeNotFound, "overlap boundary")
	}
	// Half the separation between the two chords: the offset that puts the
	// synthesized nodes on the bisecting centerline.
	distance := segmentsDistance(s1Start.Point(), s1End.Point(), s2Start.Point(), s2End.Point()) / 2.0

	newStreetNids, err := synthesizeCenterline(net, subset, seg1, seg2, distance)
	if err != nil {
		discardNodes(net, newStreetNids)
		return err
	}

	// Boundary substitution for the flanks.
	nodeTo := map[osm.NodeID]osm.NodeID{
		subset[0]:             newStreetNids[0],
		subset[len(subset)-1]: newStreetNids[len(newStreetNids)-1],
	}

	// Collect outside attachments before the graph changes shape.
	attachments := collectOutsideAttachments(net, s1, s2)

	merged := NewStreet(0, newStreetNids, WayTypeFootway)
	merged.distanceToSidewalk *= 2

	flankIDs := reemitFlanks(net, subset, seg1, seg2, s1.Type, s2.Type, nodeTo, newStreetNids)

	net.AddWay(merged)
	if err := SimplifyWay(net, merged.ID, simplifyThreshold); err != nil && verbose {
		fmt.Printf("\n\t[WARNING]: Simplification of merged way %d failed: %s", merged.ID, err)
	}

	if err := net.RemoveWay(s1.ID); err != nil {
		return err
	}
	if err := net.RemoveWay(s2.ID); err != nil {
		return err
	}

	for _, att := range attachments {
		node := net.Node(att.nodeID)
		if node == nil {
			// The node did not survive the merge; nothing dangles.
			continue
		}
		// Nodes kept alive by a re-emitted flank are still connected to
		// the merged line through it; only truly dangling nodes move.
		inFlank := false
		for _, flankID := range flankIDs {
			if node.hasWay(flankID) {
				inFlank = true
				break
			}
		}
		if inFlank {
			continue
		}
		if err := reattachOutsideWay(net, merged, att.nodeID, att.parentID); err != nil && verbose {
			fmt.Printf("\n\t[WARNING]: Reattachment of node %d (way %d) degraded: %s", att.nodeID, att.parentID, err)
		}
	}
	return nil
}

// synthesizeCenterline walks the joint overlap and emits one new node per
// visited node, displaced halfway toward the opposite way. The offset
// direction comes from the cross product of the opposite way's local
// tangent with the vector to the current node. The very last node has no
// next index to form a tangent with and reuses the previous offset,
// negated, since it sits on the opposite way.
func synthesizeCenterline(net *Network, subset []osm.NodeID, seg1, seg2 segmentation, distance float64) ([]osm.NodeID, error) {
	newStreetNids := make([]osm.NodeID, 0, len(subset))
	s1Idx, s2Idx := 0, 0
	s1Nid := seg1.overlap[0]
	s2Nid := seg2.overlap[0]

	var normal orb.Point
	haveNormal := false
	for _, nid := range subset {
		node := net.Node(nid)
		if node == nil {
			return newStreetNids, errors.Wrapf(ErrNodeNotFound, "overlap node %d", nid)
		}

		var opposite1, opposite2 *Node
		lastNode := false
		if nid == s1Nid {
			s1Idx++
			if s1Idx >= len(seg1.overlap) {
				lastNode = true
			} else {
				s1Nid = seg1.overlap[s1Idx]
				opposite1 = net.Node(s2Nid)
				if s2Idx+1 >= len(seg2.overlap) {
					lastNode = true
				} else {
					opposite2 = net.Node(seg2.overlap[s2Idx+1])
				}
			}
		} else {
			s2Idx++
			if s2Idx >= len(seg2.overlap) {
				lastNode = true
			} else {
				s2Nid = seg2.overlap[s2Idx]
				opposite1 = net.Node(s1Nid)
				if s1Idx+1 >= len(seg1.overlap) {
					lastNode = true
				} else {
					opposite2 = net.Node(seg1.overlap[s1Idx+1])
				}
			}
		}

		var newPos orb.Point
		if lastNode {
			if !haveNormal {
				return newStreetNids, errors.Wrap(ErrDegenerateGeometry, "no offset direction for a single-node overlap")
			}
			newPos = orb.Point{node.Point()[0] - normal[0]*distance, node.Point()[1] - normal[1]*distance}
		} else {
			if opposite1 == nil || opposite2 == nil {
				return newStreetNids, errors.Wrap(ErrNodeNotFound, "opposite overlap node")
			}
			v := vectorTo(opposite1.Point(), opposite2.Point(), true)
			v2 := vectorTo(opposite1.Point(), node.Point(), true)
			if cross(v, v2) > 0 {
				normal = orb.Point{v[1], -v[0]}
			} else {
				normal = orb.Point{-v[1], v[0]}
			}
			haveNormal = true
			newPos = orb.Point{node.Point()[0] + normal[0]*distance, node.Point()[1] + normal[1]*distance}
		}

		newNode := NewNode(0, newPos[1], newPos[0])
		net.AddNode(newNode)
		newStreetNids = append(newStreetNids, newNode.ID)
	}
	if len(newStreetNids) < 2 {
		return newStreetNids, errors.Wrap(ErrEmptyOverlap, "centerline shorter than 2 nodes")
	}
	return newStreetNids, nil
}

// reemitFlanks turns the non-overlapping leading/trailing sub-sequences of
// the original pair into their own ways, re-anchored to the merged
// endpoints. When both sides keep a flank that starts (or ends) at one
// shared node, only the side whose boundary made it into the overlap walk
// is re-emitted; two disjoint flanks are both kept as separate spurs.
// Returns the ids of the ways it created.
func reemitFlanks(net *Network, subset []osm.NodeID, seg1, seg2 segmentation, type1, type2 string, nodeTo map[osm.NodeID]osm.NodeID, newStreetNids []osm.NodeID) []osm.WayID {
	substitute := func(nodeID osm.NodeID, fallback osm.NodeID) osm.NodeID {
		if to, ok := nodeTo[nodeID]; ok {
			return to
		}
		return fallback
	}
	mergedStart := newStreetNids[0]
	mergedEnd := newStreetNids[len(newStreetNids)-1]

	created := []osm.WayID{}
	attachLeading := func(nids []osm.NodeID, wayType string) {
		nids[len(nids)-1] = substitute(nids[len(nids)-1], mergedStart)
		flank := NewStreet(0, nids, wayType)
		net.AddWay(flank)
		created = append(created, flank.ID)
	}
	attachTrailing := func(nids []osm.NodeID, wayType string) {
		nids[0] = substitute(subset[len(subset)-1], mergedEnd)
		flank := NewStreet(0, nids, wayType)
		net.AddWay(flank)
		created = append(created, flank.ID)
	}

	if len(seg1.leading) > 0 || len(seg2.leading) > 0 {
		switch {
		case len(seg1.leading) > 0 && len(seg2.leading) > 0:
			if seg1.leading[0] == seg2.leading[0] {
				// Both flanks grow out of one shared node: one spur is enough.
				if containsNodeID(seg1.overlap, subset[0]) {
					attachLeading(seg1.leading, type1)
				} else {
					attachLeading(seg2.leading, type2)
				}
			} else {
				attachLeading(seg1.leading, type1)
				attachLeading(seg2.leading, type2)
			}
		case len(seg1.leading) > 0:
			attachLeading(seg1.leading, type1)
		default:
			attachLeading(seg2.leading, type2)
		}
	}

	if len(seg1.trailing) > 0 || len(seg2.trailing) > 0 {
		switch {
		case len(seg1.trailing) > 0 && len(seg2.trailing) > 0:
			if seg1.trailing[len(seg1.trailing)-1] == seg2.trailing[len(seg2.trailing)-1] {
				if containsNodeID(seg1.overlap, subset[len(subset)-1]) {
					attachTrailing(seg1.trailing, type1)
				} else {
					attachTrailing(seg2.trailing, type2)
				}
			} else {
				attachTrailing(seg1.trailing, type1)
				attachTrailing(seg2.trailing, type2)
			}
		case len(seg1.trailing) > 0:
			attachTrailing(seg1.trailing, type1)
		default:
			attachTrailing(seg2.trailing, type2)
		}
	}
	return created
}

type outsideAttachment struct {
	nodeID   osm.NodeID
	parentID osm.WayID
}

// collectOutsideAttachments lists nodes of the pair that some third way is
// attached to. Snapshotted before any reassembly so that re-emitted flanks
// do not count as outside ways.
func collectOutsideAttachments(net *Network, s1, s2 *Street) []outsideAttachment {
	attachments := []outsideAttachment{}
	seen := make(map[osm.NodeID]struct{})
	for _, way := range []*Street{s1, s2} {
		for _, nodeID := range way.Nodes {
			if _, ok := seen[nodeID]; ok {
				continue
			}
			seen[nodeID] = struct{}{}
			node := net.Node(nodeID)
			if node == nil {
				continue
			}
			for _, parentID := range node.WayIDs() {
				if parentID == s1.ID || parentID == s2.ID {
					continue
				}
				attachments = append(attachments, outsideAttachment{nodeID: nodeID, parentID: parentID})
				break
			}
		}
	}
	return attachments
}

// reattachOutsideWay re-points a dangling node of a removed original onto
// the merged centerline. The entering segment of the outside way is
// intersected with the chord through the two nearest merged nodes; the
// intersection becomes a new interpolated node of the merged way. Parallel
// or otherwise degenerate configurations fall back to snapping onto the
// nearest merged node and report the reason.
func reattachOutsideWay(net *Network, merged *Street, nodeID osm.NodeID, parentID osm.WayID) error {
	node := net.Node(nodeID)
	if node == nil {
		return nil
	}
	parent := net.Way(parentID)
	if parent == nil {
		return nil
	}

	var final, final2 *Node
	dist, dist2 := math.MaxFloat64, math.MaxFloat64
	for _, mergedID := range merged.Nodes {
		mergedNode := net.Node(mergedID)
		if mergedNode == nil {
			continue
		}
		d := planarDistance(mergedNode.Point(), node.Point())
		if d < dist {
			final2, dist2 = final, dist
			final, dist = mergedNode, d
		} else if d < dist2 {
			final2, dist2 = mergedNode, d
		}
	}
	if final == nil {
		return errors.Wrap(ErrNodeNotFound, "merged way has no usable nodes")
	}

	snap := func(reason error) error {
		if err := net.SwapNodes(nodeID, final.ID); err != nil {
			return err
		}
		return reason
	}

	if final2 == nil || dist == 0 {
		return snap(nil)
	}

	idx := parent.indexOf(nodeID)
	if idx < 0 {
		return snap(nil)
	}
	var adjID osm.NodeID
	switch {
	case idx+1 < len(parent.Nodes):
		adjID = parent.Nodes[idx+1]
	case idx > 0:
		adjID = parent.Nodes[idx-1]
	default:
		return snap(nil)
	}
	adj := net.Node(adjID)
	if adj == nil {
		return snap(nil)
	}

	crossing, err := intersectLines(node.Point(), adj.Point(), final.Point(), final2.Point())
	if err != nil {
		return snap(err)
	}
	if planarDistance(crossing, node.Point()) > dist*10 {
		// Nearly parallel lines push the intersection far away; an
		// implausible junction is worse than a plain snap.
		return snap(errors.Wrap(ErrDegenerateGeometry, "intersection too far from the junction"))
	}

	interpolated := NewNode(0, crossing[1], crossing[0])
	net.AddNode(interpolated)
	pos := merged.indexOf(final.ID)
	if merged.indexOf(final2.ID) > pos {
		pos++
	}
	if err := net.InsertNodeIntoWay(merged.ID, interpolated.ID, pos); err != nil {
		return err
	}
	return net.SwapNodes(nodeID, interpolated.ID)
}

func containsNodeID(ids []osm.NodeID, id osm.NodeID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// discardNodes deletes synthesized nodes that never got attached to a way.
func discardNodes(net *Network, ids []osm.NodeID) {
	for _, id := range ids {
		if node := net.Node(id); node != nil && len(node.wayIDs) == 0 {
			delete(net.nodes, id)
		}
	}
}
