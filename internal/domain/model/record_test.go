package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseYears(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "2021", want: []string{"2021"}},
		{name: "comma separated", in: "2019, 2020,2021", want: []string{"2019", "2020", "2021"}},
		{name: "newline separated", in: "2019\n2020\n", want: []string{"2019", "2020"}},
		{name: "mixed with blanks", in: " 2018 ,\n , 2022", want: []string{"2018", "2022"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseYears(tt.in)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueText(t *testing.T) {
	assert.Equal(t, "", ValueText(nil))
	assert.Equal(t, "hello", ValueText("hello"))
	assert.Equal(t, "2024", ValueText(float64(2024)))
	assert.Equal(t, "3.5", ValueText(3.5))
	assert.Equal(t, "7", ValueText(7))
	assert.Equal(t, "photo.png", ValueText(&File{Name: "photo.png"}))
}

func TestSyntheticID(t *testing.T) {
	id := SyntheticID("media", 3)

	assert.Equal(t, "fallback:media:3", id)
	assert.True(t, IsSyntheticID(id))
	assert.False(t, IsSyntheticID("8f14e45f-ceea-467f-a0e6-3b8a1c2d9e10"))
}

func TestOrderNormalize(t *testing.T) {
	assert.Equal(t, Order{Key: "created_at", Direction: Descending}, Order{}.Normalize())
	assert.Equal(t, Order{Key: "year", Direction: Ascending}, Order{Key: "year", Direction: Ascending}.Normalize())
	assert.Equal(t, Order{Key: "year", Direction: Descending, NullsLast: true}, Order{Key: "year", NullsLast: true}.Normalize())
}

func TestFileExt(t *testing.T) {
	assert.Equal(t, "png", (&File{Name: "Poster.PNG"}).Ext())
	assert.Equal(t, "bin", (&File{Name: "noext"}).Ext())
}
