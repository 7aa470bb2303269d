package layout

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var strategies = []Strategy{StrategyGreedy, StrategyConnected}

// genFragment generates a fragment in one of five columns, 20px apart.
func genFragment() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 300),
		gen.IntRange(0, 4),
		gen.IntRange(10, 50),
		gen.IntRange(5, 30),
	).Map(func(vals []interface{}) TextFragment {
		top, ok := vals[0].(int)
		if !ok {
			panic("expected int")
		}
		column, ok := vals[1].(int)
		if !ok {
			panic("expected int")
		}
		width, ok := vals[2].(int)
		if !ok {
			panic("expected int")
		}
		height, ok := vals[3].(int)
		if !ok {
			panic("expected int")
		}
		return fragment(top, column*20, width, height, "")
	})
}

// genFragments generates fragments labeled by their index, so every text is unique.
func genFragments() gopter.Gen {
	return gen.SliceOf(genFragment()).Map(func(fragments []TextFragment) []TextFragment {
		labeled := make([]TextFragment, len(fragments))
		for i, f := range fragments {
			f.Text = fmt.Sprintf("f%d", i)
			labeled[i] = f
		}
		return labeled
	})
}

// Keeps the first fragment at every (top, left) position.
func distinctPositions(fragments []TextFragment) []TextFragment {
	seen := map[[2]int]bool{}
	distinct := []TextFragment{}
	for _, f := range fragments {
		key := [2]int{f.Box.Top, f.Box.Left}
		if !seen[key] {
			seen[key] = true
			distinct = append(distinct, f)
		}
	}
	return distinct
}

// TestCluster_NonEmptyInputHasParagraphs verifies no input is lost to an empty result.
func TestCluster_NonEmptyInputHasParagraphs(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non-empty input gives at least one paragraph", prop.ForAll(
		func(fragments []TextFragment) bool {
			if len(fragments) == 0 {
				return true
			}
			for _, strategy := range strategies {
				if len(Cluster(fragments, WithStrategy(strategy), WithMaxXDiff(20))) == 0 {
					return false
				}
			}
			return true
		},
		genFragments(),
	))

	properties.TestingRun(t)
}

// TestCluster_EveryFragmentAppearsOnce verifies the paragraphs partition the input.
func TestCluster_EveryFragmentAppearsOnce(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("each fragment is in exactly one paragraph", prop.ForAll(
		func(fragments []TextFragment) bool {
			for _, strategy := range strategies {
				seen := map[string]int{}
				for _, paragraph := range Cluster(fragments, WithStrategy(strategy), WithMaxXDiff(20)) {
					if len(paragraph.Fragments) == 0 {
						return false
					}
					for _, f := range paragraph.Fragments {
						seen[f.Text]++
					}
				}
				if len(seen) != len(fragments) {
					return false
				}
				for _, count := range seen {
					if count != 1 {
						return false
					}
				}
			}
			return true
		},
		genFragments(),
	))

	properties.TestingRun(t)
}

// TestCluster_OrderIndependent verifies the grouping does not depend on input order
// when fragments have distinct positions.
func TestCluster_OrderIndependent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("permuting fragments gives the same paragraphs", prop.ForAll(
		func(fragments []TextFragment, seed int64) bool {
			fragments = distinctPositions(fragments)
			shuffled := make([]TextFragment, len(fragments))
			copy(shuffled, fragments)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			for _, strategy := range strategies {
				expected := texts(Cluster(fragments, WithStrategy(strategy), WithMaxXDiff(20)))
				if !reflect.DeepEqual(expected, texts(Cluster(shuffled, WithStrategy(strategy), WithMaxXDiff(20)))) {
					return false
				}
			}
			return true
		},
		genFragments(),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
