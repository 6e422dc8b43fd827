package gen

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dartffi/bindgen/errors"
	"github.com/dartffi/bindgen/model"
)

// TypeHelper is the emission registry. Every codec declaration is keyed by
// its exception-safe canonical name and rendered at most once, no matter
// how many sites reference the type. Emission order is first-include order,
// so re-running the generator over the same definitions is reproducible.
type TypeHelper struct {
	defs *model.Definitions
	log  *zap.Logger

	mu     sync.Mutex
	order  []string
	bodies map[string]string
	claims map[string]bool
}

// NewTypeHelper builds a registry over defs. A nil logger is replaced with
// a no-op logger.
func NewTypeHelper(defs *model.Definitions, log *zap.Logger) *TypeHelper {
	if log == nil {
		log = zap.NewNop()
	}
	return &TypeHelper{
		defs:   defs,
		log:    log,
		bodies: make(map[string]string),
		claims: make(map[string]bool),
	}
}

// Definitions exposes the interface description the registry emits against.
func (h *TypeHelper) Definitions() *model.Definitions {
	return h.defs
}

// Include renders the codec for t, unless a codec under the same canonical
// name was already rendered. Compound types include their element codecs
// first; named types resolve through the definitions and fail with a
// not-found error when the reference dangles.
func (h *TypeHelper) Include(t model.Type) error {
	canonical := ExceptionSafeName(CanonicalName(t))
	if !h.claim(canonical) {
		return nil
	}
	h.log.Debug("including codec", zap.String("canonical", canonical))

	body, err := h.render(t)
	if err != nil {
		return err
	}
	h.store(canonical, body)
	return nil
}

// Emitted reports whether a codec under canonical has been rendered or is
// being rendered.
func (h *TypeHelper) Emitted(canonical string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.claims[canonical]
}

// Render concatenates every rendered codec in first-include order.
func (h *TypeHelper) Render() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var b strings.Builder
	for _, canonical := range h.order {
		body := h.bodies[canonical]
		if body == "" {
			continue
		}
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// claim reserves a canonical name before rendering starts, so recursive
// type graphs terminate: a self-referential record claims itself, then its
// field includes become no-ops.
func (h *TypeHelper) claim(canonical string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.claims[canonical] {
		return false
	}
	h.claims[canonical] = true
	h.order = append(h.order, canonical)
	return true
}

func (h *TypeHelper) store(canonical, body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bodies[canonical] = body
}

func (h *TypeHelper) render(t model.Type) (string, error) {
	switch t.Kind {
	case model.KindUInt8, model.KindInt8, model.KindUInt16, model.KindInt16,
		model.KindUInt32, model.KindInt32, model.KindUInt64, model.KindInt64,
		model.KindFloat32, model.KindFloat64:
		return h.renderNumeric(t)
	case model.KindBoolean:
		return h.renderBoolean()
	case model.KindString:
		return h.renderString()
	case model.KindBytes:
		return h.renderBytes()
	case model.KindDuration:
		return h.renderDuration()
	case model.KindTimestamp:
		return h.renderTimestamp()
	case model.KindOptional:
		return h.renderOptional(t)
	case model.KindSequence:
		return h.renderSequence(t)
	case model.KindMap:
		return h.renderMap(t)
	case model.KindEnum:
		e, ok := h.defs.Enum(t.Name)
		if !ok {
			return "", errors.NotFound(errors.PhaseEmit, "enum", t.Name)
		}
		return h.renderEnum(e)
	case model.KindRecord:
		r, ok := h.defs.Record(t.Name)
		if !ok {
			return "", errors.NotFound(errors.PhaseEmit, "record", t.Name)
		}
		return h.renderRecord(r)
	case model.KindObject:
		o, ok := h.defs.Object(t.Name)
		if !ok {
			return "", errors.NotFound(errors.PhaseEmit, "object", t.Name)
		}
		return h.renderObject(o)
	case model.KindCallbackInterface:
		cb, ok := h.defs.Callback(t.Name)
		if !ok {
			return "", errors.NotFound(errors.PhaseEmit, "callback interface", t.Name)
		}
		return h.renderCallback(cb)
	default:
		return "", errors.Unsupported(errors.PhaseEmit, string(t.Kind))
	}
}
