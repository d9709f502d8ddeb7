package osm2sidewalk

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Preprocessor drives the whole topology pipeline over one network.
type Preprocessor struct {
	net *Network

	bufferWidth        float64
	mergeNodeThreshold float64
	simplifyThreshold  float64
	verbose            bool
}

// PreprocessorOption customizes a Preprocessor.
type PreprocessorOption func(*Preprocessor)

// WithBufferWidth sets the half-width of the parallel-detection buffer, in
// geographic degrees.
func WithBufferWidth(width float64) PreprocessorOption {
	return func(p *Preprocessor) {
		p.bufferWidth = width
	}
}

// WithMergeNodeThreshold sets the great-circle distance, in kilometers,
// under which nodes next to way endpoints are removed.
func WithMergeNodeThreshold(threshold float64) PreprocessorOption {
	return func(p *Preprocessor) {
		p.mergeNodeThreshold = threshold
	}
}

// WithSimplifyThreshold sets the surviving node fraction for merged-way
// simplification.
func WithSimplifyThreshold(threshold float64) PreprocessorOption {
	return func(p *Preprocessor) {
		p.simplifyThreshold = threshold
	}
}

// WithVerbose enables progress output on stdout.
func WithVerbose(verbose bool) PreprocessorOption {
	return func(p *Preprocessor) {
		p.verbose = verbose
	}
}

// NewPreprocessor prepares a pipeline over the given network.
func NewPreprocessor(net *Network, options ...PreprocessorOption) *Preprocessor {
	p := &Preprocessor{
		net:                net,
		bufferWidth:        defaultBufferWidth,
		mergeNodeThreshold: defaultMergeNodeThreshold,
		simplifyThreshold:  defaultSimplifyThreshold,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Run executes the pipeline in order: parallel detection, chain joining,
// pairwise merging, splitting at intersections, adjacency refresh, node
// merging, seam fusing, and a final pruning of degenerate ways. The
// network is modified in place; a non-nil error means it failed the final
// integrity check and must not be used further.
func (p *Preprocessor) Run() error {
	st := time.Now()

	pairs := FindParallelPairs(p.net, p.bufferWidth, p.verbose)
	pairs = JoinConnectedWays(p.net, pairs, p.verbose)
	MergeParallelPairs(p.net, pairs, p.simplifyThreshold, p.verbose)

	SplitAtIntersections(p.net, p.verbose)
	p.net.RefreshAdjacency()
	MergeCloseNodes(p.net, p.mergeNodeThreshold, p.verbose)
	CleanTwoWayNodes(p.net, p.verbose)

	p.pruneDegenerateWays()

	if err := p.net.CheckIntegrity(); err != nil {
		return errors.Wrap(err, "preprocessed network failed integrity check")
	}
	if p.verbose {
		fmt.Printf("Preprocessing finished in %v\n\tWays: %d Nodes: %d\n", time.Since(st), len(p.net.ways), len(p.net.nodes))
	}
	return nil
}

// pruneDegenerateWays drops ways that ended up with fewer than two nodes.
func (p *Preprocessor) pruneDegenerateWays() {
	for _, way := range p.net.Ways() {
		if len(way.Nodes) < 2 {
			_ = p.net.RemoveWay(way.ID)
		}
	}
}
