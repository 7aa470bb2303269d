package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapFilterReduce(t *testing.T) {
	numbers := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{2, 4, 6, 8, 10}, Map(numbers, func(n int) int { return n * 2 }))
	assert.Equal(t, []int{2, 4}, Filter(numbers, func(n int) bool { return n%2 == 0 }))
	assert.Equal(t, 15, Reduce(numbers, func(sum int, n int) int { return sum + n }, 0))
	assert.Empty(t, Filter(numbers, func(n int) bool { return n > 10 }))
}

func TestFlatMap(t *testing.T) {
	nested := [][]string{{"a", "b"}, {}, {"c"}}
	assert.Equal(t, []string{"a", "b", "c"}, FlatMap(nested, func(s []string) []string { return s }))
}

func TestContains(t *testing.T) {
	words := []string{"Hello", "World"}

	assert.True(t, Contains(words, "Hello"))
	assert.False(t, Contains(words, "Goodbye"))
	assert.False(t, Contains([]string{}, ""))
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name     string
		input    []int
		size     int
		expected [][]int
	}{
		{name: "even", input: []int{1, 2, 3, 4}, size: 2, expected: [][]int{{1, 2}, {3, 4}}},
		{name: "remainder", input: []int{1, 2, 3, 4, 5}, size: 2, expected: [][]int{{1, 2}, {3, 4}, {5}}},
		{name: "empty", input: []int{}, size: 2, expected: [][]int{}},
		{name: "non-positive size", input: []int{1, 2}, size: 0, expected: [][]int{{1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Chunk(tt.input, tt.size))
		})
	}
}
