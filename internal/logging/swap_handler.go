package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// handlerSlot is one generation of a swapHandler's target.
type handlerSlot struct {
	h slog.Handler
}

type derivedHandler struct {
	base *handlerSlot
	h    slog.Handler
}

// swapHandler forwards to a target that can be replaced while loggers
// built on it are in use. Handlers derived with WithAttrs or WithGroup
// share the target and replay their derivation on the new one.
type swapHandler struct {
	slot   *atomic.Pointer[handlerSlot]
	derive func(slog.Handler) slog.Handler
	cache  atomic.Pointer[derivedHandler]
}

func newSwapHandler(h slog.Handler) *swapHandler {
	s := &swapHandler{slot: &atomic.Pointer[handlerSlot]{}}
	s.slot.Store(&handlerSlot{h: h})
	return s
}

// swap replaces the target for s and everything derived from it.
func (s *swapHandler) swap(h slog.Handler) {
	s.slot.Store(&handlerSlot{h: h})
}

func (s *swapHandler) target() slog.Handler {
	base := s.slot.Load()
	if s.derive == nil {
		return base.h
	}
	if d := s.cache.Load(); d != nil && d.base == base {
		return d.h
	}
	h := s.derive(base.h)
	s.cache.Store(&derivedHandler{base: base, h: h})
	return h
}

func (s *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return s.target().Enabled(ctx, level)
}

func (s *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.target().Handle(ctx, r)
}

func (s *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return s
	}
	return s.chain(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (s *swapHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	return s.chain(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (s *swapHandler) chain(step func(slog.Handler) slog.Handler) *swapHandler {
	derive := step
	if parent := s.derive; parent != nil {
		derive = func(h slog.Handler) slog.Handler { return step(parent(h)) }
	}
	return &swapHandler{slot: s.slot, derive: derive}
}
