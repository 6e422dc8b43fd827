package wire

import (
	"github.com/dartffi/bindgen/errors"
	"github.com/dartffi/bindgen/model"
)

// Codec encodes and decodes one type's values at explicit buffer offsets.
// Write returns the bytes written, Read the value and the bytes consumed.
// For every valid value, Read after Write consumes exactly AllocationSize.
type Codec interface {
	AllocationSize(v any) (int, error)
	Write(v any, buf []byte, off int) (int, error)
	Read(buf []byte, off int) (any, int, error)
}

// For builds the codec for a type node, resolving named references through
// defs. defs may be nil for models without named types. Named references
// resolve by name, not by structural expansion, so self-referential records
// and enums terminate.
func For(t model.Type, defs *model.Definitions) (Codec, error) {
	res := &resolver{defs: defs, named: make(map[string]*refCodec)}
	return res.codec(t)
}

// resolver memoizes named codecs for one For call. A placeholder is claimed
// under the definition's name before its body is built, so a cycle resolves
// to the placeholder instead of recursing; the same claim-before-render
// rule the emission registry uses.
type resolver struct {
	defs  *model.Definitions
	named map[string]*refCodec
}

// refCodec stands in for a named codec while its body is under
// construction. The target is always set before any value can flow through,
// since construction completes before For returns.
type refCodec struct {
	target Codec
}

func (c *refCodec) AllocationSize(v any) (int, error) {
	return c.target.AllocationSize(v)
}

func (c *refCodec) Write(v any, buf []byte, off int) (int, error) {
	return c.target.Write(v, buf, off)
}

func (c *refCodec) Read(buf []byte, off int) (any, int, error) {
	return c.target.Read(buf, off)
}

func (res *resolver) claim(key string, build func() (Codec, error)) (Codec, error) {
	if rc, ok := res.named[key]; ok {
		return rc, nil
	}
	rc := &refCodec{}
	res.named[key] = rc
	body, err := build()
	if err != nil {
		delete(res.named, key)
		return nil, err
	}
	rc.target = body
	return rc, nil
}

func (res *resolver) codec(t model.Type) (Codec, error) {
	defs := res.defs
	switch t.Kind {
	case model.KindUInt8, model.KindInt8, model.KindUInt16, model.KindInt16,
		model.KindUInt32, model.KindInt32, model.KindUInt64, model.KindInt64:
		return intCodec{spec: intSpecs[t.Kind]}, nil
	case model.KindFloat32:
		return float32Codec{}, nil
	case model.KindFloat64:
		return float64Codec{}, nil
	case model.KindBoolean:
		return boolCodec{}, nil
	case model.KindString:
		return stringCodec{}, nil
	case model.KindBytes:
		return bytesCodec{}, nil
	case model.KindDuration:
		return durationCodec{}, nil
	case model.KindTimestamp:
		return timestampCodec{}, nil
	case model.KindOptional:
		inner, err := res.codec(*t.Inner)
		if err != nil {
			return nil, err
		}
		return optionalCodec{inner: inner}, nil
	case model.KindSequence:
		inner, err := res.codec(*t.Inner)
		if err != nil {
			return nil, err
		}
		return sequenceCodec{inner: inner}, nil
	case model.KindMap:
		key, err := res.codec(*t.Key)
		if err != nil {
			return nil, err
		}
		value, err := res.codec(*t.Value)
		if err != nil {
			return nil, err
		}
		return mapCodec{key: key, value: value}, nil
	case model.KindEnum:
		if defs == nil {
			return nil, errors.NotFound(errors.PhaseEncode, "enum", t.Name)
		}
		e, ok := defs.Enum(t.Name)
		if !ok {
			return nil, errors.NotFound(errors.PhaseEncode, "enum", t.Name)
		}
		return res.claim("enum:"+t.Name, func() (Codec, error) {
			return newEnumCodec(e, res)
		})
	case model.KindRecord:
		if defs == nil {
			return nil, errors.NotFound(errors.PhaseEncode, "record", t.Name)
		}
		r, ok := defs.Record(t.Name)
		if !ok {
			return nil, errors.NotFound(errors.PhaseEncode, "record", t.Name)
		}
		return res.claim("record:"+t.Name, func() (Codec, error) {
			return newRecordCodec(r, res)
		})
	case model.KindObject, model.KindCallbackInterface:
		return handleCodec{}, nil
	default:
		return nil, errors.Unsupported(errors.PhaseEncode, string(t.Kind))
	}
}

// Encode renders a value to a fresh buffer sized by AllocationSize.
func Encode(c Codec, v any) ([]byte, error) {
	size, err := c.AllocationSize(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	n, err := c.Write(v, buf, 0)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("wrote %d bytes, allocation size was %d", n, size).
			Build()
	}
	return buf, nil
}

// Decode reads a value from buf and requires the whole buffer be consumed.
func Decode(c Codec, buf []byte) (any, error) {
	v, n, err := c.Read(buf, 0)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("consumed %d of %d bytes", n, len(buf)).
			Build()
	}
	return v, nil
}

func need(buf []byte, off, n int) error {
	if off+n > len(buf) {
		return errors.OutOfBounds(errors.PhaseDecode, nil, off+n, len(buf))
	}
	return nil
}

// room is need's write-side twin: a caller-supplied buffer too small for
// the bytes about to land fails structurally instead of panicking.
func room(buf []byte, off, n int) error {
	if off+n > len(buf) {
		return errors.OutOfBounds(errors.PhaseEncode, nil, off+n, len(buf))
	}
	return nil
}
