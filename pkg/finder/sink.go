package finder

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pathscout/pkg/fserrors"
)

// Sink receives push notifications from a traversal. Results are pushed
// before they are yielded to the pull side.
//
// OnError receives recoverable per-item errors and reports whether it handled
// them. An unhandled error, or a nil Sink, makes the error fatal.
type Sink interface {
	OnResult(r Result)
	OnProgress(p Progress)
	OnError(err error) bool
}

// SinkFuncs adapts plain functions to a Sink. A nil Error func leaves errors
// unhandled.
type SinkFuncs struct {
	Result   func(Result)
	Progress func(Progress)
	Error    func(error)
}

func (s SinkFuncs) OnResult(r Result) {
	if s.Result != nil {
		s.Result(r)
	}
}

func (s SinkFuncs) OnProgress(p Progress) {
	if s.Progress != nil {
		s.Progress(p)
	}
}

func (s SinkFuncs) OnError(err error) bool {
	if s.Error == nil {
		return false
	}
	s.Error(err)
	return true
}

// LogSink logs every notification and handles all errors.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s LogSink) OnResult(r Result) {
	s.log().Debug("Discovered file", zap.String("path", r.RelativePath))
}

func (s LogSink) OnProgress(Progress) {}

func (s LogSink) OnError(err error) bool {
	if e, ok := err.(*fserrors.Error); ok {
		s.log().Warn("Skipping path", zap.Object("error", e))
		return true
	}
	s.log().Warn("Skipping path", zap.Error(err))
	return true
}

// CollectingSink records recoverable errors so they can be inspected after the call.
type CollectingSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *CollectingSink) OnResult(Result)     {}
func (s *CollectingSink) OnProgress(Progress) {}

func (s *CollectingSink) OnError(err error) bool {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	return true
}

// Errors returns the recorded errors in arrival order.
func (s *CollectingSink) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

// Err combines the recorded errors, or returns nil.
func (s *CollectingSink) Err() error {
	return multierr.Combine(s.Errors()...)
}

// Tee fans notifications out to several sinks. An error counts as handled
// when any of them handles it.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) OnResult(r Result) {
	for _, s := range t {
		s.OnResult(r)
	}
}

func (t teeSink) OnProgress(p Progress) {
	for _, s := range t {
		s.OnProgress(p)
	}
}

func (t teeSink) OnError(err error) bool {
	handled := false
	for _, s := range t {
		if s.OnError(err) {
			handled = true
		}
	}
	return handled
}
