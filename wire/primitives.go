package wire

import (
	"encoding/binary"
	"math"
	"time"
	"unicode/utf8"

	"github.com/dartffi/bindgen/errors"
	"github.com/dartffi/bindgen/model"
)

// intSpec is one fixed-width integer row: width in bytes plus the value
// bounds checked before encoding. Integers travel big-endian; lowerBound
// rows only reject negatives, since a 64-bit unsigned maximum is not
// expressible in the host's integer type.
type intSpec struct {
	name       string
	width      int
	min, max   int64
	signed     bool
	lowerBound bool
}

var intSpecs = map[model.Kind]intSpec{
	model.KindUInt8:  {name: "u8", width: 1, min: 0, max: math.MaxUint8},
	model.KindInt8:   {name: "i8", width: 1, min: math.MinInt8, max: math.MaxInt8, signed: true},
	model.KindUInt16: {name: "u16", width: 2, min: 0, max: math.MaxUint16},
	model.KindInt16:  {name: "i16", width: 2, min: math.MinInt16, max: math.MaxInt16, signed: true},
	model.KindUInt32: {name: "u32", width: 4, min: 0, max: math.MaxUint32},
	model.KindInt32:  {name: "i32", width: 4, min: math.MinInt32, max: math.MaxInt32, signed: true},
	model.KindUInt64: {name: "u64", width: 8, lowerBound: true},
	model.KindInt64:  {name: "i64", width: 8, signed: true},
}

type intCodec struct {
	spec intSpec
}

func (c intCodec) validate(v any) (int64, error) {
	n, ok := v.(int64)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected int64 for "+c.spec.name)
	}
	switch {
	case c.spec.lowerBound:
		if n < 0 {
			return 0, errors.OutOfRange(errors.PhaseValidate, nil, n, c.spec.name)
		}
	case c.spec.width < 8 || c.spec.signed:
		if c.spec.width < 8 && (n < c.spec.min || n > c.spec.max) {
			return 0, errors.OutOfRange(errors.PhaseValidate, nil, n, c.spec.name)
		}
	}
	return n, nil
}

func (c intCodec) AllocationSize(v any) (int, error) {
	if _, err := c.validate(v); err != nil {
		return 0, err
	}
	return c.spec.width, nil
}

func (c intCodec) Write(v any, buf []byte, off int) (int, error) {
	n, err := c.validate(v)
	if err != nil {
		return 0, err
	}
	if err := room(buf, off, c.spec.width); err != nil {
		return 0, err
	}
	bits := uint64(n)
	for i := c.spec.width - 1; i >= 0; i-- {
		buf[off+i] = byte(bits)
		bits >>= 8
	}
	return c.spec.width, nil
}

func (c intCodec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, c.spec.width); err != nil {
		return nil, 0, err
	}
	var bits uint64
	for i := 0; i < c.spec.width; i++ {
		bits = bits<<8 | uint64(buf[off+i])
	}
	if c.spec.signed && c.spec.width < 8 {
		shift := uint(64 - c.spec.width*8)
		return int64(bits<<shift) >> shift, c.spec.width, nil
	}
	return int64(bits), c.spec.width, nil
}

// Floats are the one little-endian corner of the protocol.

type float32Codec struct{}

func (float32Codec) AllocationSize(v any) (int, error) {
	if _, ok := v.(float64); !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected float64 for f32")
	}
	return 4, nil
}

func (float32Codec) Write(v any, buf []byte, off int) (int, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected float64 for f32")
	}
	if err := room(buf, off, 4); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(f)))
	return 4, nil
}

func (float32Codec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 4); err != nil {
		return nil, 0, err
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))), 4, nil
}

type float64Codec struct{}

func (float64Codec) AllocationSize(v any) (int, error) {
	if _, ok := v.(float64); !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected float64 for f64")
	}
	return 8, nil
}

func (float64Codec) Write(v any, buf []byte, off int) (int, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected float64 for f64")
	}
	if err := room(buf, off, 8); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(f))
	return 8, nil
}

func (float64Codec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 8); err != nil {
		return nil, 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[off:])), 8, nil
}

type boolCodec struct{}

func (boolCodec) AllocationSize(v any) (int, error) {
	if _, ok := v.(bool); !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected bool")
	}
	return 1, nil
}

func (boolCodec) Write(v any, buf []byte, off int) (int, error) {
	b, ok := v.(bool)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected bool")
	}
	if err := room(buf, off, 1); err != nil {
		return 0, err
	}
	if b {
		buf[off] = 1
	} else {
		buf[off] = 0
	}
	return 1, nil
}

func (boolCodec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 1); err != nil {
		return nil, 0, err
	}
	return buf[off] != 0, 1, nil
}

type stringCodec struct{}

func (stringCodec) AllocationSize(v any) (int, error) {
	s, ok := v.(string)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected string")
	}
	return 4 + len(s), nil
}

func (stringCodec) Write(v any, buf []byte, off int) (int, error) {
	s, ok := v.(string)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected string")
	}
	if err := room(buf, off, 4+len(s)); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(buf[off:], uint32(len(s)))
	copy(buf[off+4:], s)
	return 4 + len(s), nil
}

func (stringCodec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 4); err != nil {
		return nil, 0, err
	}
	n := int(binary.BigEndian.Uint32(buf[off:]))
	if err := need(buf, off+4, n); err != nil {
		return nil, 0, err
	}
	data := buf[off+4 : off+4+n]
	if !utf8.Valid(data) {
		return nil, 0, errors.InvalidUTF8(errors.PhaseDecode, nil, data)
	}
	return string(data), 4 + n, nil
}

type bytesCodec struct{}

func (bytesCodec) AllocationSize(v any) (int, error) {
	b, ok := v.([]byte)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected []byte")
	}
	return 4 + len(b), nil
}

func (bytesCodec) Write(v any, buf []byte, off int) (int, error) {
	b, ok := v.([]byte)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected []byte")
	}
	if err := room(buf, off, 4+len(b)); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(buf[off:], uint32(len(b)))
	copy(buf[off+4:], b)
	return 4 + len(b), nil
}

func (bytesCodec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 4); err != nil {
		return nil, 0, err
	}
	n := int(binary.BigEndian.Uint32(buf[off:]))
	if err := need(buf, off+4, n); err != nil {
		return nil, 0, err
	}
	out := make([]byte, n)
	copy(out, buf[off+4:])
	return out, 4 + n, nil
}

// durationCodec carries a non-negative span as unsigned seconds plus
// unsigned nanoseconds, 12 bytes.
type durationCodec struct{}

func (durationCodec) validate(v any) (time.Duration, error) {
	d, ok := v.(time.Duration)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected time.Duration")
	}
	if d < 0 {
		return 0, errors.OutOfRange(errors.PhaseValidate, nil, d, "duration")
	}
	return d, nil
}

func (c durationCodec) AllocationSize(v any) (int, error) {
	if _, err := c.validate(v); err != nil {
		return 0, err
	}
	return 12, nil
}

func (c durationCodec) Write(v any, buf []byte, off int) (int, error) {
	d, err := c.validate(v)
	if err != nil {
		return 0, err
	}
	if err := room(buf, off, 12); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint64(buf[off:], uint64(d/time.Second))
	binary.BigEndian.PutUint32(buf[off+8:], uint32(d%time.Second))
	return 12, nil
}

func (durationCodec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 12); err != nil {
		return nil, 0, err
	}
	secs := binary.BigEndian.Uint64(buf[off:])
	nanos := binary.BigEndian.Uint32(buf[off+8:])
	return time.Duration(secs)*time.Second + time.Duration(nanos), 12, nil
}

// timestampCodec carries seconds before or after epoch as a signed count,
// with the nanosecond part always a magnitude in the same direction.
// Seconds truncate toward zero, so -0.5s encodes as (0, 500000000) with the
// sign carried by the seconds once they are nonzero.
type timestampCodec struct{}

func (timestampCodec) AllocationSize(v any) (int, error) {
	if _, ok := v.(time.Time); !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected time.Time")
	}
	return 12, nil
}

func (timestampCodec) Write(v any, buf []byte, off int) (int, error) {
	t, ok := v.(time.Time)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected time.Time")
	}
	micros := t.UnixMicro()
	secs := micros / 1_000_000
	rem := micros % 1_000_000
	if rem < 0 {
		rem = -rem
	}
	if err := room(buf, off, 12); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint64(buf[off:], uint64(secs))
	binary.BigEndian.PutUint32(buf[off+8:], uint32(rem*1000))
	return 12, nil
}

func (timestampCodec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 12); err != nil {
		return nil, 0, err
	}
	secs := int64(binary.BigEndian.Uint64(buf[off:]))
	nanos := int64(binary.BigEndian.Uint32(buf[off+8:]))
	if secs < 0 {
		nanos = -nanos
	}
	return time.UnixMicro(secs*1_000_000 + nanos/1000).UTC(), 12, nil
}

// handleCodec moves opaque 8-byte handles for objects and callback
// interfaces.
type handleCodec struct{}

func (handleCodec) AllocationSize(v any) (int, error) {
	if _, ok := v.(int64); !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected int64 handle")
	}
	return 8, nil
}

func (handleCodec) Write(v any, buf []byte, off int) (int, error) {
	h, ok := v.(int64)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected int64 handle")
	}
	if err := room(buf, off, 8); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint64(buf[off:], uint64(h))
	return 8, nil
}

func (handleCodec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 8); err != nil {
		return nil, 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[off:])), 8, nil
}
