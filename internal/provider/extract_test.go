package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   interface{}
		want float64
		ok   bool
	}{
		{name: "nil", in: nil},
		{name: "float", in: 12.5, want: 12.5, ok: true},
		{name: "int", in: 7, want: 7, ok: true},
		{name: "int64", in: int64(9), want: 9, ok: true},
		{name: "numeric string", in: " 31 ", want: 31, ok: true},
		{name: "text", in: "n/a"},
		{name: "nested total", in: map[string]interface{}{"total": 4.0}, want: 4, ok: true},
		{name: "nested empty", in: map[string]interface{}{"home": 4.0}},
		{name: "bool", in: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractValue(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractInt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 27, ExtractInt(27.0))
	assert.Equal(t, -4, ExtractInt(-4.0))
	assert.Equal(t, 0, ExtractInt(nil))
	assert.Equal(t, 0, ExtractInt("x"))
}

func TestMinutesText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   interface{}
		want string
	}{
		{in: nil, want: ""},
		{in: "36:12", want: "36:12"},
		{in: " 00 ", want: "00"},
		{in: "DNP", want: "DNP"},
		{in: 34.0, want: "34"},
		{in: 32.5, want: "32:30"},
		{in: 7.1, want: "7:06"},
		{in: 11.999, want: "12"},
		{in: -3.0, want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MinutesText(tt.in), "%v", tt.in)
	}
}

func TestSeasonLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2023-24", SeasonLabel(2023))
	assert.Equal(t, "1999-00", SeasonLabel(1999))
}
