package osm2sidewalk

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// defaultSimplifyThreshold keeps a way at no more than this fraction of its
// original node count after Visvalingam simplification.
const defaultSimplifyThreshold = 0.1

type simplifyEntry struct {
	idx     int
	area    float64
	version int
	seq     int
}

// areaHeap is a min-heap over triangle areas. Entries carry the version of
// the vertex at push time; stale entries are skipped on pop instead of
// being removed in place. Ties break on push order for determinism.
type areaHeap []simplifyEntry

func (h areaHeap) Len() int { return len(h) }
func (h areaHeap) Less(i, j int) bool {
	if h[i].area != h[j].area {
		return h[i].area < h[j].area
	}
	return h[i].seq < h[j].seq
}
func (h areaHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *areaHeap) Push(x interface{}) {
	*h = append(*h, x.(simplifyEntry))
}

func (h *areaHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// SimplifyWay removes the least significant interior nodes of a way until
// the survivor count is within threshold times the original count.
// Significance of a node is the area of the triangle it forms with its
// surviving neighbors; removing one re-scores the two neighbors. Endpoints
// always survive, ways under 3 nodes are left alone.
func SimplifyWay(net *Network, wayID osm.WayID, threshold float64) error {
	way := net.Way(wayID)
	if way == nil {
		return errors.Wrapf(ErrWayNotFound, "simplify way %d", wayID)
	}
	n := len(way.Nodes)
	if n < 3 {
		return nil
	}
	return simplifyNodes(net, way, threshold)
}

func simplifyNodes(net *Network, way *Street, threshold float64) error {
	n := len(way.Nodes)
	prev := make([]int, n)
	next := make([]int, n)
	version := make([]int, n)
	alive := make([]bool, n)
	for i := 0; i < n; i++ {
		prev[i], next[i] = i-1, i+1
		alive[i] = true
	}

	point := func(i int) (orb.Point, error) {
		node := net.Node(way.Nodes[i])
		if node == nil {
			return orb.Point{}, errors.Wrapf(ErrNodeNotFound, "simplify way %d", way.ID)
		}
		return node.Point(), nil
	}

	score := func(i int) (float64, error) {
		a, err := point(prev[i])
		if err != nil {
			return 0, err
		}
		b, err := point(i)
		if err != nil {
			return 0, err
		}
		c, err := point(next[i])
		if err != nil {
			return 0, err
		}
		return triangleArea(a, b, c), nil
	}

	h := &areaHeap{}
	heap.Init(h)
	seq := 0
	push := func(i int) error {
		area, err := score(i)
		if err != nil {
			return err
		}
		heap.Push(h, simplifyEntry{idx: i, area: area, version: version[i], seq: seq})
		seq++
		return nil
	}
	for i := 1; i < n-1; i++ {
		if err := push(i); err != nil {
			return err
		}
	}

	interior := n - 2
	for float64(interior+2)/float64(n) > threshold && h.Len() > 0 {
		entry := heap.Pop(h).(simplifyEntry)
		if !alive[entry.idx] || entry.version != version[entry.idx] {
			continue
		}
		i := entry.idx
		alive[i] = false
		interior--
		next[prev[i]] = next[i]
		prev[next[i]] = prev[i]
		for _, neighbor := range []int{prev[i], next[i]} {
			if neighbor <= 0 || neighbor >= n-1 || !alive[neighbor] {
				continue
			}
			version[neighbor]++
			if err := push(neighbor); err != nil {
				return err
			}
		}
	}

	survivors := make([]osm.NodeID, 0, interior+2)
	for i := 0; i < n; i++ {
		if alive[i] {
			survivors = append(survivors, way.Nodes[i])
		}
	}
	return net.ReplaceWayNodes(way.ID, survivors)
}

// SimplifyAllWays runs SimplifyWay over the whole network.
func SimplifyAllWays(net *Network, threshold float64, verbose bool) {
	if verbose {
		fmt.Printf("Simplifying way geometries... ")
	}
	st := time.Now()
	for _, way := range net.Ways() {
		if err := SimplifyWay(net, way.ID, threshold); err != nil && verbose {
			fmt.Printf("\n\t[WARNING]: Simplification of way %d failed: %s", way.ID, err)
		}
	}
	if verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
	}
}
