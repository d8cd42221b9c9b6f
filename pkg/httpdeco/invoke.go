package httpdeco

import (
	"context"
	"errors"

	"github.com/brizzai/httpdeco/pkg/metadata"
	"github.com/brizzai/httpdeco/pkg/reqconfig"
	"go.uber.org/zap"
)

// Phase is a step of a decorated call.
type Phase int

const (
	PhaseAssembling Phase = iota
	PhaseDispatched
	PhaseFulfilled
	PhaseFailed
	PhaseDelegated
)

func (p Phase) String() string {
	switch p {
	case PhaseAssembling:
		return "ASSEMBLING"
	case PhaseDispatched:
		return "DISPATCHED"
	case PhaseFulfilled:
		return "FULFILLED"
	case PhaseFailed:
		return "FAILED"
	case PhaseDelegated:
		return "DELEGATED"
	}
	return "UNKNOWN"
}

func (c *Client) invoke(ctx context.Context, key metadata.Key, verb, url string, body Body, callArgs []any) (any, error) {
	meta := c.store.Metadata(key)
	args := prepareArgs(callArgs, meta.MaxSlot())
	log := c.logger.With(
		zap.Stringer("endpoint", key),
		zap.String("verb", verb),
		zap.String("url", url),
	)

	log.Debug("decorated call", zap.Stringer("phase", PhaseAssembling))
	cfg := assemble(c.registry.Defaults(), meta, verb, url, args)

	log.Debug("decorated call", zap.Stringer("phase", PhaseDispatched))
	resp, err := c.transport.Send(ctx, cfg)

	var unhandled error
	if err != nil {
		log.Debug("decorated call", zap.Stringer("phase", PhaseFailed), zap.Error(err))
		resp = nil
		switch {
		case meta.ErrorSlot.Valid():
			args[meta.ErrorSlot] = err
		case c.policy == DiscardUnhandled:
			log.Warn("discarding transport error, no error slot declared", zap.Error(err))
		default:
			unhandled = err
		}
	} else {
		log.Debug("decorated call", zap.Stringer("phase", PhaseFulfilled))
		if meta.ResponseSlot.Valid() {
			args[meta.ResponseSlot] = resp
		}
	}

	log.Debug("decorated call", zap.Stringer("phase", PhaseDelegated))
	var (
		result  any
		bodyErr error
	)
	if body != nil {
		result, bodyErr = body(ctx, args)
	} else if resp != nil {
		result = resp
	}

	if unhandled != nil {
		return result, errors.Join(bodyErr, unhandled)
	}
	return result, bodyErr
}

// assemble layers one call's configuration: base defaults, the static config fragment, the call-time
// config argument, the params routed by verb, the static headers, and finally url and method.
func assemble(base reqconfig.RequestConfig, meta metadata.Metadata, verb, url string, args []any) reqconfig.RequestConfig {
	cfg := base
	if cfg == nil {
		cfg = reqconfig.RequestConfig{}
	}

	if meta.Config != nil {
		reqconfig.MergeInto(cfg, reqconfig.CloneConfig(meta.Config))
	}
	if fragment := slotMapping(args, meta.ConfigSlot); fragment != nil {
		reqconfig.MergeInto(cfg, reqconfig.CloneConfig(fragment))
	}

	params := make(map[string]any, len(meta.Params))
	for k, v := range meta.Params {
		params[k] = reqconfig.Clone(v)
	}
	for k, v := range slotMapping(args, meta.ParamsSlot) {
		params[k] = reqconfig.Clone(v)
	}
	reqconfig.MergeInto(cfg, map[string]any{reqconfig.ParamsField(verb): params})

	if meta.Headers != nil {
		reqconfig.MergeInto(cfg, map[string]any{reqconfig.KeyHeaders: reqconfig.Clone(meta.Headers)})
	}

	cfg[reqconfig.KeyURL] = url
	cfg[reqconfig.KeyMethod] = verb
	return cfg
}

// slotMapping returns the plain mapping passed at slot, or nil when the slot is unset, out of range,
// or holds anything other than a mapping.
func slotMapping(args []any, slot metadata.Slot) map[string]any {
	if !slot.Valid() || int(slot) >= len(args) {
		return nil
	}
	return reqconfig.AsMapping(args[slot])
}

// prepareArgs copies the caller's arguments into a list long enough to hold every declared slot.
func prepareArgs(callArgs []any, highest metadata.Slot) []any {
	n := len(callArgs)
	if int(highest)+1 > n {
		n = int(highest) + 1
	}
	args := make([]any, n)
	copy(args, callArgs)
	return args
}

// Arg returns args[i] as a T. It reports false when i is out of range or the value is not a T.
func Arg[T any](args []any, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(args) {
		return zero, false
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Fail is a convenience for bodies that want to surface the injected error: it returns the error found
// at slot i, if any.
func Fail(args []any, i int) error {
	err, _ := Arg[error](args, i)
	return err
}
