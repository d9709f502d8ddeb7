package osm2sidewalk

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// JoinConnectedWays pre-combines chains of short ways that all pair up with
// the same long way. The merger can only reason about simple pairs; a long
// way flanked by several short ones would make it fail, so the short ways
// are joined into a single way first. Returns a rebuilt pair list with
// pairs referencing consumed way ids dropped; the caller must use it
// instead of the original list.
func JoinConnectedWays(net *Network, pairs [][2]osm.WayID, verbose bool) [][2]osm.WayID {
	occurrences := make(map[osm.WayID]int)
	for _, pair := range pairs {
		occurrences[pair[0]]++
		occurrences[pair[1]]++
	}

	// Ways appearing in more than one pair are the long ways the short
	// partners need to be joined for.
	longWays := make([]osm.WayID, 0)
	for wayID, count := range occurrences {
		if count > 1 {
			longWays = append(longWays, wayID)
		}
	}
	sort.Slice(longWays, func(i, j int) bool { return longWays[i] < longWays[j] })

	consumed := make(map[osm.WayID]struct{})
	for _, longID := range longWays {
		partners := make([]osm.WayID, 0)
		for _, pair := range pairs {
			if pair[0] == longID {
				partners = append(partners, pair[1])
			}
			if pair[1] == longID {
				partners = append(partners, pair[0])
			}
		}
		if len(partners) < 2 {
			continue
		}
		head := partners[0]
		for _, partner := range partners[1:] {
			if partner == head {
				continue
			}
			same, err := net.sameDirection(head, partner)
			if err != nil {
				if verbose {
					fmt.Printf("\t[WARNING]: Join of ways %d and %d skipped: %s\n", head, partner, err)
				}
				continue
			}
			if !same {
				// Opposite carriageways stay separate.
				continue
			}
			if err := net.JoinWays(head, partner); err != nil {
				if verbose {
					fmt.Printf("\t[WARNING]: Join of ways %d and %d failed: %s\n", head, partner, err)
				}
				continue
			}
			consumed[partner] = struct{}{}
		}
	}

	// Rebuild the pair list: consumed ids are no longer valid.
	rebuilt := make([][2]osm.WayID, 0, len(pairs))
	for _, pair := range pairs {
		if _, ok := consumed[pair[0]]; ok {
			continue
		}
		if _, ok := consumed[pair[1]]; ok {
			continue
		}
		rebuilt = append(rebuilt, pair)
	}
	return rebuilt
}

// sameDirection reports whether two ways run the same direction, comparing
// their endpoint-to-endpoint vectors.
func (net *Network) sameDirection(a, b osm.WayID) (bool, error) {
	va, err := net.endpointVector(a)
	if err != nil {
		return false, err
	}
	vb, err := net.endpointVector(b)
	if err != nil {
		return false, err
	}
	return dot(va, vb) > 0, nil
}

func (net *Network) endpointVector(id osm.WayID) (v orb.Point, err error) {
	way := net.Way(id)
	if way == nil {
		return v, errors.Wrapf(ErrWayNotFound, "direction of way %d", id)
	}
	if len(way.Nodes) < 2 {
		return v, errors.Errorf("way %d is too short for a direction", id)
	}
	start := net.Node(way.Nodes[0])
	end := net.Node(way.Nodes[len(way.Nodes)-1])
	if start == nil || end == nil {
		return v, errors.Wrapf(ErrNodeNotFound, "direction of way %d", id)
	}
	return vectorTo(start.Point(), end.Point(), true), nil
}
