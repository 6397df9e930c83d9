package actionspace

import (
	"math"
	"testing"

	"github.com/churninator/churninator/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResolution(t *testing.T) {
	tests := []struct {
		input   string
		want    Resolution
		wantErr bool
	}{
		{"1920x1080", Resolution{1920, 1080}, false},
		{" 1280X720 ", Resolution{1280, 720}, false},
		{"1920", Resolution{}, true},
		{"ax1080", Resolution{}, true},
		{"1920xb", Resolution{}, true},
		{"0x1080", Resolution{0, 1080}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseResolution(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.ErrInvalidResolution, types.GetErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.String(), roundTripResolution(t, got))
		})
	}
}

func roundTripResolution(t *testing.T, r Resolution) string {
	t.Helper()
	again, err := ParseResolution(r.String())
	require.NoError(t, err)
	return again.String()
}

func TestResolution_ToPixels(t *testing.T) {
	x, y := DefaultResolution.ToPixels(0.5, 0.25)
	assert.Equal(t, 960, x)
	assert.Equal(t, 270, y)

	tests := []struct {
		name         string
		x, y         float64
		wantX, wantY int
	}{
		{"origin", 0, 0, 0, 0},
		{"far corner", 1, 1, 1920, 1080},
		{"negative clamps to zero", -0.3, -1e300, 0, 0},
		{"huge clamps to edge", 1e300, 7, 1920, 1080},
		{"nan is zero", math.NaN(), 0.5, 0, 540},
		{"infinity clamps", math.Inf(1), math.Inf(-1), 1920, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := DefaultResolution.ToPixels(tt.x, tt.y)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}
