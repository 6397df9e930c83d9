package evaluation

import (
	"fmt"

	"github.com/churninator/churninator/agent/actionspace"
	cp "github.com/churninator/churninator/agent/callparser"
)

// BBox is a target region in normalized (0..1) coordinates.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// NormalizeBBox converts a pixel box [x1, y1, x2, y2] to normalized
// coordinates for an image of the given size.
func NormalizeBBox(pixels [4]float64, width, height int) (BBox, error) {
	if width <= 0 || height <= 0 {
		return BBox{}, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	w, h := float64(width), float64(height)
	return BBox{
		X1: pixels[0] / w,
		Y1: pixels[1] / h,
		X2: pixels[2] / w,
		Y2: pixels[3] / h,
	}, nil
}

// CheckClickAccuracy reports whether (x, y) lies inside bbox, bounds included.
func CheckClickAccuracy(x, y float64, bbox BBox) bool {
	return bbox.X1 <= x && x <= bbox.X2 && bbox.Y1 <= y && y <= bbox.Y2
}

// ExtractPrediction pulls the predicted calls out of a model completion.
// Stage 2 completions carry the action in a <code> block; stage 1 output is
// scanned as free text.
func ExtractPrediction(text string, stage int) []*cp.Call {
	if stage == 2 {
		return cp.ParseCodeBlock(text)
	}
	return cp.ExtractCallsFromFreeText(text)
}

// Prediction outcomes.
const (
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
	OutcomeUnparsed  = "unparsed"
	OutcomeNonClick  = "non_click"
)

// ClassifyClick grades the first predicted call against bbox. A call that is
// not a click with numeric x and y is non_click. When normalizer is not nil
// the prediction is normalized first, so pyautogui.click(0.5, 0.5) counts.
func ClassifyClick(response string, stage int, bbox BBox, normalizer *actionspace.Normalizer) string {
	calls := ExtractPrediction(response, stage)
	if len(calls) == 0 {
		return OutcomeUnparsed
	}
	call := calls[0]
	if normalizer != nil {
		if err := normalizer.NormalizeCall(call); err != nil {
			return OutcomeNonClick
		}
	}
	if call.Name != actionspace.ActionClick {
		return OutcomeNonClick
	}
	xv, okX := call.Param(actionspace.ParamX)
	yv, okY := call.Param(actionspace.ParamY)
	if !okX || !okY {
		return OutcomeNonClick
	}
	x, okX := xv.Number()
	y, okY := yv.Number()
	if !okX || !okY {
		return OutcomeNonClick
	}
	if CheckClickAccuracy(x, y, bbox) {
		return OutcomeCorrect
	}
	return OutcomeIncorrect
}
