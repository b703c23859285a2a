package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/structix/errors"
)

func TestResolveIndices(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want []int
	}{
		{"1:end", 10, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"", 3, []int{0, 1, 2}},
		{"3:4", 10, []int{2, 3}},
		{"7", 10, []int{6}},
		{"end", 10, []int{9}},
		{"2:end:2", 10, []int{1, 3, 5, 7, 9}},
		{"1,3,5:7", 10, []int{0, 2, 4, 5, 6}},
		{"5:7, 1", 10, []int{4, 5, 6, 0}},
		{"1:3,2:4", 10, []int{0, 1, 2, 3}},
		{"8:12", 10, []int{7, 8, 9}},
		{":2", 10, []int{0, 1}},
		{"9:", 10, []int{8, 9}},
		{"END", 1, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			sel, err := ParseIndices(tt.text)
			require.NoError(t, err)

			got, err := sel.Resolve(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveIndicesOutOfRange(t *testing.T) {
	sel := MustParseIndices("20:25")

	_, err := sel.Resolve(10)
	require.Error(t, err)

	var rangeErr *IndexRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, "20:25", rangeErr.Indices)
	assert.Equal(t, 10, rangeErr.Count)
	assert.True(t, errors.Is(err, errors.ErrIndexRange))
	assert.True(t, errors.IsUserError(err))
}

func TestResolveEmptyInput(t *testing.T) {
	_, err := MustParseIndices("1:end").Resolve(0)
	assert.True(t, errors.Is(err, errors.ErrIndexRange))
}

func TestParseIndicesInvalid(t *testing.T) {
	for _, text := range []string{"abc", "0", "-1", "4:2", "1:2:0", "1:2:x", "1:2:3:4", "1,,2", "1.5"} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseIndices(text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidIndices))
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
		})
	}
}

func TestSelectionAll(t *testing.T) {
	assert.True(t, MustParseIndices("").All())
	assert.True(t, MustParseIndices("1:end").All())
	assert.False(t, MustParseIndices("1:5").All())
	assert.Equal(t, "3:4", MustParseIndices(" 3:4 ").String())
}

func TestMustParseIndicesPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseIndices("x") })
}
