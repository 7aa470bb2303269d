package layout

import (
	"math"
	"sort"
)

// Deciding how fragments are linked into paragraphs.
type Strategy string

const (
	// Attach each fragment to the first paragraph whose most recent fragment is adjacent.
	// Assignments are never revisited.
	StrategyGreedy Strategy = "greedy"
	// Link any two adjacent fragments and return the connected components.
	StrategyConnected Strategy = "connected"
)

const (
	// Allowed gap between a line's top and the previous line's bottom, in multiples of the previous line's height.
	DefaultMaxLineGap = 1.0
	// Allowed difference between left edges, in pixels, for two lines to share a column.
	DefaultMaxXDiff = 1.0
)

type options struct {
	maxLineGap float64
	maxXDiff   float64
	strategy   Strategy
}

// Option tunes Cluster.
type Option func(*options)

func WithMaxLineGap(maxLineGap float64) Option {
	return func(o *options) { o.maxLineGap = maxLineGap }
}

func WithMaxXDiff(maxXDiff float64) Option {
	return func(o *options) { o.maxXDiff = maxXDiff }
}

// WithStrategy selects the grouping strategy. Unknown values fall back to StrategyGreedy.
func WithStrategy(strategy Strategy) Option {
	return func(o *options) { o.strategy = strategy }
}

// Cluster groups fragments that continue each other vertically in the same column.
//
// Fragments are ordered top-to-bottom then left-to-right (stable for equal positions) before grouping,
// so the result does not depend on the input order of fragments at distinct positions. Every fragment
// ends up in exactly one paragraph. The input slice is not modified.
func Cluster(fragments []TextFragment, opts ...Option) []Paragraph {
	o := options{
		maxLineGap: DefaultMaxLineGap,
		maxXDiff:   DefaultMaxXDiff,
		strategy:   StrategyGreedy,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(fragments) == 0 {
		return []Paragraph{}
	}

	sorted := make([]TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i int, j int) bool {
		if sorted[i].Box.Top != sorted[j].Box.Top {
			return sorted[i].Box.Top < sorted[j].Box.Top
		}
		return sorted[i].Box.Left < sorted[j].Box.Left
	})

	if o.strategy == StrategyConnected {
		return connectedParagraphs(sorted, o)
	}
	return greedyParagraphs(sorted, o)
}

func greedyParagraphs(sorted []TextFragment, o options) []Paragraph {
	paragraphs := []Paragraph{}
	for _, fragment := range sorted {
		attached := false
		for i, paragraph := range paragraphs {
			last := paragraph.Fragments[len(paragraph.Fragments)-1]
			if isContinuation(last, fragment, o) {
				paragraphs[i].Fragments = append(paragraph.Fragments, fragment)
				attached = true
				break
			}
		}
		if !attached {
			paragraphs = append(paragraphs, Paragraph{Fragments: []TextFragment{fragment}})
		}
	}
	return paragraphs
}

// Components are ordered by their first member and members keep the sorted order.
func connectedParagraphs(sorted []TextFragment, o options) []Paragraph {
	parent := make([]int, len(sorted))
	for i := range parent {
		parent[i] = i
	}
	root := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			if isContinuation(sorted[i], sorted[j], o) {
				// The smaller index stays the root so the component keeps its first member.
				ri, rj := root(i), root(j)
				if ri != rj {
					parent[max(ri, rj)] = min(ri, rj)
				}
			}
		}
	}

	paragraphs := []Paragraph{}
	indexByRoot := map[int]int{}
	for i, fragment := range sorted {
		r := root(i)
		index, ok := indexByRoot[r]
		if !ok {
			index = len(paragraphs)
			indexByRoot[r] = index
			paragraphs = append(paragraphs, Paragraph{})
		}
		paragraphs[index].Fragments = append(paragraphs[index].Fragments, fragment)
	}
	return paragraphs
}

// Reports whether current continues the paragraph whose latest fragment is previous:
// it starts within maxLineGap heights below previous and its left edge is within maxXDiff pixels.
func isContinuation(previous TextFragment, current TextFragment, o options) bool {
	gap := float64(current.Box.Top - previous.Box.Bottom())
	isVerticallyClose := gap <= float64(previous.Box.Height)*o.maxLineGap
	isAligned := math.Abs(float64(current.Box.Left-previous.Box.Left)) <= o.maxXDiff
	return isVerticallyClose && isAligned
}
