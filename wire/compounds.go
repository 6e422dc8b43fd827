package wire

import (
	"encoding/binary"

	"github.com/dartffi/bindgen/errors"
)

// optionalCodec spends one presence byte; the payload follows only when the
// byte is 1. A nil any is absent.
type optionalCodec struct {
	inner Codec
}

func (c optionalCodec) AllocationSize(v any) (int, error) {
	if v == nil {
		return 1, nil
	}
	n, err := c.inner.AllocationSize(v)
	if err != nil {
		return 0, err
	}
	return 1 + n, nil
}

func (c optionalCodec) Write(v any, buf []byte, off int) (int, error) {
	if err := room(buf, off, 1); err != nil {
		return 0, err
	}
	if v == nil {
		buf[off] = 0
		return 1, nil
	}
	buf[off] = 1
	n, err := c.inner.Write(v, buf, off+1)
	if err != nil {
		return 0, err
	}
	return 1 + n, nil
}

func (c optionalCodec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 1); err != nil {
		return nil, 0, err
	}
	switch buf[off] {
	case 0:
		return nil, 1, nil
	case 1:
		v, n, err := c.inner.Read(buf, off+1)
		if err != nil {
			return nil, 0, err
		}
		return v, 1 + n, nil
	default:
		return nil, 0, errors.InvalidData(errors.PhaseDecode, nil, "optional presence byte must be 0 or 1")
	}
}

// sequenceCodec frames a 4-byte element count, then the elements
// back-to-back with offsets derived purely from bytes consumed.
type sequenceCodec struct {
	inner Codec
}

func (c sequenceCodec) AllocationSize(v any) (int, error) {
	items, ok := v.([]any)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected []any sequence")
	}
	size := 4
	for _, it := range items {
		n, err := c.inner.AllocationSize(it)
		if err != nil {
			return 0, err
		}
		size += n
	}
	return size, nil
}

func (c sequenceCodec) Write(v any, buf []byte, off int) (int, error) {
	items, ok := v.([]any)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected []any sequence")
	}
	if err := room(buf, off, 4); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(buf[off:], uint32(len(items)))
	written := 4
	for _, it := range items {
		n, err := c.inner.Write(it, buf, off+written)
		if err != nil {
			return 0, err
		}
		written += n
	}
	return written, nil
}

func (c sequenceCodec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 4); err != nil {
		return nil, 0, err
	}
	count := int(binary.BigEndian.Uint32(buf[off:]))
	items := make([]any, 0, count)
	consumed := 4
	for i := 0; i < count; i++ {
		v, n, err := c.inner.Read(buf, off+consumed)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
		consumed += n
	}
	return items, consumed, nil
}

// Entry is one key/value pair of a map value. Maps travel as ordered entry
// lists so encode order is the caller's insertion order, exactly like the
// host language's insertion-ordered maps.
type Entry struct {
	Key   any
	Value any
}

type mapCodec struct {
	key   Codec
	value Codec
}

func (c mapCodec) AllocationSize(v any) (int, error) {
	entries, ok := v.([]Entry)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected []wire.Entry map")
	}
	size := 4
	for _, e := range entries {
		kn, err := c.key.AllocationSize(e.Key)
		if err != nil {
			return 0, err
		}
		vn, err := c.value.AllocationSize(e.Value)
		if err != nil {
			return 0, err
		}
		size += kn + vn
	}
	return size, nil
}

func (c mapCodec) Write(v any, buf []byte, off int) (int, error) {
	entries, ok := v.([]Entry)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseValidate, nil, "expected []wire.Entry map")
	}
	if err := room(buf, off, 4); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(buf[off:], uint32(len(entries)))
	written := 4
	for _, e := range entries {
		n, err := c.key.Write(e.Key, buf, off+written)
		if err != nil {
			return 0, err
		}
		written += n
		n, err = c.value.Write(e.Value, buf, off+written)
		if err != nil {
			return 0, err
		}
		written += n
	}
	return written, nil
}

func (c mapCodec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 4); err != nil {
		return nil, 0, err
	}
	count := int(binary.BigEndian.Uint32(buf[off:]))
	entries := make([]Entry, 0, count)
	consumed := 4
	for i := 0; i < count; i++ {
		k, n, err := c.key.Read(buf, off+consumed)
		if err != nil {
			return nil, 0, err
		}
		consumed += n
		v, n, err := c.value.Read(buf, off+consumed)
		if err != nil {
			return nil, 0, err
		}
		consumed += n
		entries = append(entries, Entry{Key: k, Value: v})
	}
	return entries, consumed, nil
}
