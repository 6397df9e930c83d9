package actionspace

import (
	"errors"

	cp "github.com/churninator/churninator/agent/callparser"
	"go.uber.org/zap"
)

// Normalization outcomes reported to a Recorder.
const (
	StatusRewritten   = "rewritten"
	StatusPassThrough = "pass_through"
	StatusMalformed   = "malformed"
)

// Recorder receives one observation per normalized call.
type Recorder interface {
	RecordNormalization(source, canonical, status string)
}

// Normalizer 动作归一化器
type Normalizer struct {
	logger   *zap.Logger
	recorder Recorder
}

// NormalizerOption 配置选项
type NormalizerOption func(*Normalizer)

// WithRecorder reports every normalized call to r.
func WithRecorder(r Recorder) NormalizerOption {
	return func(n *Normalizer) {
		n.recorder = r
	}
}

// NewNormalizer 创建归一化器
func NewNormalizer(logger *zap.Logger, opts ...NormalizerOption) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Normalizer{logger: logger.With(zap.String("component", "action_normalizer"))}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize rewrites calls in place with a silent normalizer. See
// (*Normalizer).Normalize.
func Normalize(calls []*cp.Call, res Resolution) ([]*cp.Call, error) {
	return defaultNormalizer.Normalize(calls, res)
}

// Normalize rewrites every call onto the canonical vocabulary, in place and in
// list order, and returns the same slice.
//
// A call that cannot be rewritten is left as it was and reported in the
// returned *BatchError; the other calls are still normalized. An invalid
// resolution fails the whole batch before any call is touched.
func (n *Normalizer) Normalize(calls []*cp.Call, res Resolution) ([]*cp.Call, error) {
	if err := res.Validate(); err != nil {
		return calls, err
	}

	var failures []*MalformedActionError
	for i, call := range calls {
		if call == nil {
			continue
		}
		if err := n.normalizeOne(call); err != nil {
			merr := &MalformedActionError{Index: i, Call: call.Clone(), Err: err}
			var fe *fieldError
			if errors.As(err, &fe) {
				merr.Field = fe.field
				merr.Err = fe.err
			}
			failures = append(failures, merr)
			n.logger.Warn("malformed action",
				zap.Int("index", i),
				zap.String("action", call.Name),
				zap.String("raw", call.RawText),
				zap.String("field", merr.Field),
				zap.Error(merr.Err),
			)
			n.record(call.Name, "", StatusMalformed)
		}
	}

	if len(failures) > 0 {
		return calls, &BatchError{Total: len(calls), Errors: failures}
	}
	return calls, nil
}

// NormalizeCall rewrites a single call in place.
func (n *Normalizer) NormalizeCall(call *cp.Call) error {
	_, err := n.Normalize([]*cp.Call{call}, DefaultResolution)
	var be *BatchError
	if errors.As(err, &be) && len(be.Errors) == 1 {
		return be.Errors[0]
	}
	return err
}

// normalizeOne works on a copy of the parameters and commits only when the
// rewrite succeeds.
func (n *Normalizer) normalizeOne(call *cp.Call) error {
	source := call.Name
	params := call.Params.Clone()

	r, ok := rules[source]
	if !ok {
		compactPositional(&params)
		call.Params = params
		call.Description = call.String()
		n.record(source, source, StatusPassThrough)
		return nil
	}

	reindexAll(&params)
	if r.rewrite != nil {
		if err := r.rewrite(&params); err != nil {
			return err
		}
	}
	compactPositional(&params)
	call.Name = r.canonical
	call.Params = params
	call.Description = call.String()
	n.logger.Debug("action normalized",
		zap.String("source", source),
		zap.String("canonical", call.Description),
	)
	n.record(source, r.canonical, StatusRewritten)
	return nil
}

func (n *Normalizer) record(source, canonical, status string) {
	if n.recorder != nil {
		n.recorder.RecordNormalization(source, canonical, status)
	}
}
