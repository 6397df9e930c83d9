package actionspace

import (
	"fmt"
	"math"
	"sort"

	cp "github.com/churninator/churninator/agent/callparser"
)

// Canonical action names.
const (
	ActionNavigateHome = "navigate_home"
	ActionOpenApp      = "open_app"
	ActionNavigateBack = "navigate_back"
	ActionSwipe        = "swipe"
	ActionLongPress    = "long_press"
	ActionFinalAnswer  = "final_answer"
	ActionWait         = "wait"
	ActionClick        = "click"
	ActionDoubleClick  = "double_click"
	ActionRightClick   = "right_click"
	ActionPress        = "press"
	ActionMoveMouse    = "move_mouse"
	ActionType         = "type"
	ActionScroll       = "scroll"
	ActionDrag         = "drag"
)

// Canonical parameter names.
const (
	ParamX         = "x"
	ParamY         = "y"
	ParamFromCoord = "from_coord"
	ParamToCoord   = "to_coord"
	ParamSeconds   = "seconds"
	ParamKeys      = "keys"
	ParamText      = "text"
	ParamAmount    = "amount"
	ParamDirection = "direction"
)

// Scroll directions.
const (
	DirectionUp    = "up"
	DirectionDown  = "down"
	DirectionLeft  = "left"
	DirectionRight = "right"
)

// fieldError is returned by a rewrite to name the offending parameter.
type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return e.field + ": " + e.err.Error() }
func (e *fieldError) Unwrap() error { return e.err }

func missing(field string) error {
	return &fieldError{field: field, err: ErrMissingArgument}
}

func invalid(field string, format string, args ...any) error {
	return &fieldError{field: field, err: fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))}
}

// rewrite transforms the parameters of a call whose name is already canonical.
type rewrite func(params *cp.Params) error

// rule maps one source action name onto the canonical vocabulary.
type rule struct {
	canonical string
	rewrite   rewrite
}

// rules is the complete source vocabulary. Names not listed pass through.
var rules = map[string]rule{
	"mobile.home":           {canonical: ActionNavigateHome},
	"mobile.open_app":       {canonical: ActionOpenApp},
	"mobile.back":           {canonical: ActionNavigateBack},
	"mobile.swipe":          {canonical: ActionSwipe, rewrite: rewriteCoordinates},
	"mobile.long_press":     {canonical: ActionLongPress, rewrite: rewriteCoordinates},
	"mobile.terminate":      {canonical: ActionFinalAnswer},
	"answer":                {canonical: ActionFinalAnswer},
	"mobile.wait":           {canonical: ActionWait, rewrite: rewriteWait},
	"pyautogui.click":       {canonical: ActionClick, rewrite: rewriteCoordinates},
	"pyautogui.doubleClick": {canonical: ActionDoubleClick, rewrite: rewriteCoordinates},
	"pyautogui.rightClick":  {canonical: ActionRightClick, rewrite: rewriteCoordinates},
	"pyautogui.hotkey":      {canonical: ActionPress, rewrite: renameFirst(ParamKeys)},
	"pyautogui.press":       {canonical: ActionPress, rewrite: renameFirst(ParamKeys)},
	"pyautogui.moveTo":      {canonical: ActionMoveMouse, rewrite: rewriteCoordinates},
	"pyautogui.write":       {canonical: ActionType, rewrite: renameFirst(ParamText)},
	"pyautogui.scroll":      {canonical: ActionScroll, rewrite: rewriteScroll(DirectionUp, DirectionDown)},
	"pyautogui.hscroll":     {canonical: ActionScroll, rewrite: rewriteScroll(DirectionLeft, DirectionRight)},
	"pyautogui.dragTo":      {canonical: ActionDrag, rewrite: rewriteCoordinates},
}

// SourceActions returns the source names the normalizer rewrites, sorted.
func SourceActions() []string {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanonicalName returns the canonical name for a source action name and
// whether the name is in the table.
func CanonicalName(source string) (string, bool) {
	r, ok := rules[source]
	return r.canonical, ok
}

var (
	arg0 = cp.PositionalKey(0)
	arg1 = cp.PositionalKey(1)
)

// rewriteCoordinates maps arg_0 to from_coord or x and arg_1 to to_coord or y
// depending on whether each one holds a pair or a scalar.
func rewriteCoordinates(params *cp.Params) error {
	if err := rewriteCoordinate(params, arg0, ParamFromCoord, ParamX); err != nil {
		return err
	}
	return rewriteCoordinate(params, arg1, ParamToCoord, ParamY)
}

func rewriteCoordinate(params *cp.Params, key, pairName, scalarName string) error {
	v, ok := params.Get(key)
	if !ok {
		return nil
	}
	switch v.Kind() {
	case cp.KindList:
		items, _ := v.AsList()
		coords := make([]float64, len(items))
		for i, item := range items {
			f, err := item.ToFloat()
			if err != nil {
				return invalid(pairName, "element %d: %v", i, err)
			}
			coords[i] = f
		}
		params.Delete(key)
		params.Set(pairName, cp.Floats(coords...))
	case cp.KindMap:
		return invalid(scalarName, "expected coordinate, got map")
	default:
		f, err := v.ToFloat()
		if err != nil {
			return invalid(scalarName, "%v", err)
		}
		params.Delete(key)
		params.Set(scalarName, cp.Float(f))
	}
	return nil
}

func rewriteWait(params *cp.Params) error {
	v, ok := params.Get(arg0)
	if !ok {
		return nil
	}
	seconds, err := v.ToInt()
	if err != nil {
		return invalid(ParamSeconds, "%v", err)
	}
	params.Delete(arg0)
	params.Set(ParamSeconds, cp.Int(seconds))
	return nil
}

func renameFirst(to string) rewrite {
	return func(params *cp.Params) error {
		params.Rename(arg0, to)
		return nil
	}
}

// rewriteScroll turns a signed delta into amount = round(|delta|*100) and a
// direction: negative for neg, otherwise pos.
func rewriteScroll(neg, pos string) rewrite {
	return func(params *cp.Params) error {
		v, ok := params.Get(arg0)
		if !ok {
			return missing(arg0)
		}
		delta, ok := v.Number()
		if !ok {
			return invalid(arg0, "expected number, got %s", v.Kind())
		}
		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			return invalid(arg0, "expected finite number, got %v", delta)
		}
		amount := math.Round(math.Abs(delta) * 100)
		if !cp.FitsInt64(amount) {
			return invalid(arg0, "scroll delta %v is out of range", delta)
		}
		params.Delete(arg0)
		params.Set(ParamAmount, cp.Int(int64(amount)))
		direction := pos
		if delta < 0 {
			direction = neg
		}
		params.Set(ParamDirection, cp.String(direction))
		return nil
	}
}

// reindexAll rekeys every parameter positionally in iteration order, dropping
// explicit names. Table rules address arguments by position only.
func reindexAll(params *cp.Params) {
	entries := params.Entries()
	var out cp.Params
	for i, e := range entries {
		out.Set(cp.PositionalKey(i), e.Value)
	}
	*params = out
}

// compactPositional renumbers arg_N keys to a contiguous arg_0.. sequence,
// keeping their relative order and their slots among named parameters.
func compactPositional(params *cp.Params) {
	positional := params.Positional()
	if len(positional) == 0 {
		return
	}
	renamed := make(map[string]string, len(positional))
	changed := false
	for i, p := range positional {
		key := cp.PositionalKey(i)
		renamed[p.Key] = key
		if key != p.Key {
			changed = true
		}
	}
	if !changed {
		return
	}
	var out cp.Params
	for _, e := range params.Entries() {
		if key, ok := renamed[e.Key]; ok {
			out.Set(key, e.Value)
			continue
		}
		out.Set(e.Key, e.Value)
	}
	*params = out
}
