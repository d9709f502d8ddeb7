package osm2sidewalk

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

var (
	// ErrNodeNotFound is returned on lookup of a node id that is not in the network.
	ErrNodeNotFound = errors.New("node not found")
	// ErrWayNotFound is returned on lookup of a way id that is not in the network.
	ErrWayNotFound = errors.New("way not found")
)

// BBox is the bounding box of the network in geographic degrees.
type BBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

func (b *BBox) extend(pt orb.Point) {
	if pt[1] < b.MinLat {
		b.MinLat = pt[1]
	}
	if pt[1] > b.MaxLat {
		b.MaxLat = pt[1]
	}
	if pt[0] < b.MinLon {
		b.MinLon = pt[0]
	}
	if pt[0] > b.MaxLon {
		b.MaxLon = pt[0]
	}
}

// Network is the in-memory street graph: the single owner of all nodes and
// ways. Every topology edit goes through it so that the node <-> way
// back-references stay consistent. Not safe for concurrent use.
type Network struct {
	nodes map[osm.NodeID]*Node
	ways  map[osm.WayID]*Street

	bounds BBox

	lastNodeID osm.NodeID
	lastWayID  osm.WayID
}

// NewNetwork creates an empty street network.
func NewNetwork() *Network {
	return &Network{
		nodes:  make(map[osm.NodeID]*Node),
		ways:   make(map[osm.WayID]*Street),
		bounds: BBox{MinLat: 100000.0, MinLon: 100000.0, MaxLat: -100000.0, MaxLon: -100000.0},
	}
}

// Node returns the node with the given id or nil.
func (net *Network) Node(id osm.NodeID) *Node {
	return net.nodes[id]
}

// Way returns the way with the given id or nil.
func (net *Network) Way(id osm.WayID) *Street {
	return net.ways[id]
}

// Nodes returns all nodes ordered by id.
func (net *Network) Nodes() []*Node {
	out := make([]*Node, 0, len(net.nodes))
	for _, node := range net.nodes {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Ways returns all ways ordered by id.
func (net *Network) Ways() []*Street {
	out := make([]*Street, 0, len(net.ways))
	for _, way := range net.ways {
		out = append(out, way)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BBox returns the current bounding box of the network.
func (net *Network) BBox() BBox {
	return net.bounds
}

// AddNode inserts a node into the network. A zero id gets the next free id
// assigned. Re-adding an existing id overwrites the stored node; the caller
// must have detached the previous associations first.
func (net *Network) AddNode(node *Node) {
	if node.ID == 0 {
		net.lastNodeID++
		node.ID = net.lastNodeID
	} else if node.ID > net.lastNodeID {
		net.lastNodeID = node.ID
	}
	if node.minIntersectionCardinality == 0 {
		node.minIntersectionCardinality = 2
	}
	net.nodes[node.ID] = node
	net.bounds.extend(node.geom)
}

// AddWay inserts a way and pushes its id onto the incident set of every
// referenced node.
func (net *Network) AddWay(street *Street) {
	if street.ID == 0 {
		net.lastWayID++
		street.ID = net.lastWayID
	} else if street.ID > net.lastWayID {
		net.lastWayID = street.ID
	}
	net.ways[street.ID] = street
	for _, nodeID := range street.Nodes {
		if node := net.nodes[nodeID]; node != nil {
			node.appendWay(street.ID)
		}
	}
}

// RemoveNode detaches the node from every incident way and deletes it.
// A way shrinks its node sequence; the caller is responsible for pruning
// ways that drop below 2 nodes.
func (net *Network) RemoveNode(id osm.NodeID) error {
	node := net.nodes[id]
	if node == nil {
		return errors.Wrapf(ErrNodeNotFound, "remove node %d", id)
	}
	for _, wayID := range append([]osm.WayID(nil), node.wayIDs...) {
		if way := net.ways[wayID]; way != nil {
			way.removeNode(id)
		}
	}
	delete(net.nodes, id)
	return nil
}

// RemoveWay detaches the way id from every referenced node, deletes nodes
// left with no incident ways, and finally deletes the way.
func (net *Network) RemoveWay(id osm.WayID) error {
	way := net.ways[id]
	if way == nil {
		return errors.Wrapf(ErrWayNotFound, "remove way %d", id)
	}
	for _, nodeID := range way.Nodes {
		node := net.nodes[nodeID]
		if node == nil {
			continue
		}
		node.removeWay(id)
		if len(node.wayIDs) == 0 {
			delete(net.nodes, nodeID)
		}
	}
	delete(net.ways, id)
	return nil
}

// JoinWays relabels every node incident to way b as incident to way a and
// deletes b. It does not concatenate node sequences; it only pre-combines
// chains of short ways so that the merger reasons about simple pairs.
func (net *Network) JoinWays(a, b osm.WayID) error {
	if net.ways[a] == nil {
		return errors.Wrapf(ErrWayNotFound, "join ways %d and %d", a, b)
	}
	wayB := net.ways[b]
	if wayB == nil {
		return errors.Wrapf(ErrWayNotFound, "join ways %d and %d", a, b)
	}
	for _, nodeID := range wayB.Nodes {
		node := net.nodes[nodeID]
		if node == nil {
			continue
		}
		node.appendWay(a)
		node.removeWay(b)
	}
	delete(net.ways, b)
	return nil
}

// SwapNodes replaces every occurrence of node `from` with node `to` in all
// incident ways, then deletes `from`. Used when two nodes turn out to be
// the same point.
func (net *Network) SwapNodes(from, to osm.NodeID) error {
	fromNode := net.nodes[from]
	if fromNode == nil {
		return errors.Wrapf(ErrNodeNotFound, "swap node %d", from)
	}
	toNode := net.nodes[to]
	if toNode == nil {
		return errors.Wrapf(ErrNodeNotFound, "swap node %d", to)
	}
	for _, wayID := range append([]osm.WayID(nil), fromNode.wayIDs...) {
		if way := net.ways[wayID]; way != nil {
			way.swapNode(from, to)
			toNode.appendWay(wayID)
		}
	}
	delete(net.nodes, from)
	return nil
}

// InsertNodeIntoWay places an existing node into the way's sequence at the
// given position, keeping back-references consistent.
func (net *Network) InsertNodeIntoWay(wayID osm.WayID, nodeID osm.NodeID, pos int) error {
	way := net.ways[wayID]
	if way == nil {
		return errors.Wrapf(ErrWayNotFound, "insert into way %d", wayID)
	}
	node := net.nodes[nodeID]
	if node == nil {
		return errors.Wrapf(ErrNodeNotFound, "insert node %d", nodeID)
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(way.Nodes) {
		pos = len(way.Nodes)
	}
	way.Nodes = append(way.Nodes, 0)
	copy(way.Nodes[pos+1:], way.Nodes[pos:])
	way.Nodes[pos] = nodeID
	node.appendWay(wayID)
	return nil
}

// ReplaceWayNodes rewrites the way's node sequence, detaching nodes that
// dropped out and deleting them when they end up with no incident ways.
func (net *Network) ReplaceWayNodes(wayID osm.WayID, nodeIDs []osm.NodeID) error {
	way := net.ways[wayID]
	if way == nil {
		return errors.Wrapf(ErrWayNotFound, "replace nodes of way %d", wayID)
	}
	kept := make(map[osm.NodeID]struct{}, len(nodeIDs))
	for _, id := range nodeIDs {
		kept[id] = struct{}{}
	}
	for _, id := range way.Nodes {
		if _, ok := kept[id]; ok {
			continue
		}
		node := net.nodes[id]
		if node == nil {
			continue
		}
		node.removeWay(wayID)
		if len(node.wayIDs) == 0 {
			delete(net.nodes, id)
		}
	}
	way.Nodes = nodeIDs
	for _, id := range nodeIDs {
		if node := net.nodes[id]; node != nil {
			node.appendWay(wayID)
		}
	}
	return nil
}

// adjacentInWay returns the node right next to the given endpoint node
// along the way: the second node when the node leads the sequence, the
// second-to-last otherwise.
func (net *Network) adjacentInWay(way *Street, nodeID osm.NodeID) *Node {
	if way == nil || len(way.Nodes) < 2 {
		return nil
	}
	if way.Nodes[0] == nodeID {
		return net.nodes[way.Nodes[1]]
	}
	return net.nodes[way.Nodes[len(way.Nodes)-2]]
}

// AdjacentNodes returns, for each way incident to the given node, the
// neighbor node right next to it along that way.
func (net *Network) AdjacentNodes(node *Node) []*Node {
	adjacent := []*Node{}
	for _, wayID := range node.wayIDs {
		if neighbor := net.adjacentInWay(net.ways[wayID], node.ID); neighbor != nil {
			adjacent = append(adjacent, neighbor)
		}
	}
	return adjacent
}

// RefreshAdjacency recomputes every node's incident-way set from scratch
// and raises the junction cardinality threshold to 3: once streets are
// split, an endpoint shared by two ways is a seam, not an intersection.
func (net *Network) RefreshAdjacency() {
	for _, node := range net.nodes {
		node.wayIDs = nil
		node.minIntersectionCardinality = 3
	}
	for _, way := range net.Ways() {
		for _, nodeID := range way.Nodes {
			if node := net.nodes[nodeID]; node != nil {
				node.appendWay(way.ID)
			}
		}
	}
}

// CheckIntegrity verifies the structural invariants of the network: every
// referenced node exists, no way is shorter than 2 nodes, and the
// node <-> way back-references agree in both directions. A non-nil error
// means the graph is unusable for any further stage.
func (net *Network) CheckIntegrity() error {
	for _, way := range net.Ways() {
		if len(way.Nodes) < 2 {
			return errors.Errorf("way %d has %d nodes", way.ID, len(way.Nodes))
		}
		for _, nodeID := range way.Nodes {
			node := net.nodes[nodeID]
			if node == nil {
				return errors.Wrapf(ErrNodeNotFound, "way %d references node %d", way.ID, nodeID)
			}
			if !node.hasWay(way.ID) {
				return errors.Errorf("node %d misses back-reference to way %d", nodeID, way.ID)
			}
		}
	}
	for _, node := range net.Nodes() {
		for _, wayID := range node.wayIDs {
			way := net.ways[wayID]
			if way == nil {
				return errors.Wrapf(ErrWayNotFound, "node %d references way %d", node.ID, wayID)
			}
			if !way.containsNode(node.ID) {
				return errors.Errorf("way %d misses node %d listed in its incident set", wayID, node.ID)
			}
		}
	}
	return nil
}
