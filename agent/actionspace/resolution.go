package actionspace

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/churninator/churninator/types"
)

// Resolution is the target coordinate space of a batch, in pixels.
type Resolution struct {
	Width  int `yaml:"width" env:"WIDTH" json:"width"`
	Height int `yaml:"height" env:"HEIGHT" json:"height"`
}

// DefaultResolution is the viewport the worker and the preprocessor assume.
var DefaultResolution = Resolution{Width: 1920, Height: 1080}

// Validate fails on non-positive sizes.
func (r Resolution) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return types.Errorf(types.ErrInvalidResolution, "resolution must be positive, got %dx%d", r.Width, r.Height)
	}
	return nil
}

// ToPixels converts a normalized (0..1) coordinate to pixels. Inputs are
// clamped to 0..1 (NaN counts as 0), so the result stays inside 0..Width and
// 0..Height.
func (r Resolution) ToPixels(x, y float64) (int, int) {
	return int(clampUnit(x) * float64(r.Width)), int(clampUnit(y) * float64(r.Height))
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ParseResolution parses "WIDTHxHEIGHT".
func ParseResolution(s string) (Resolution, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Resolution{}, types.Errorf(types.ErrInvalidResolution, "resolution %q is not WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Resolution{}, types.NewError(types.ErrInvalidResolution, "invalid width").WithCause(err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Resolution{}, types.NewError(types.ErrInvalidResolution, "invalid height").WithCause(err)
	}
	r := Resolution{Width: width, Height: height}
	return r, r.Validate()
}
