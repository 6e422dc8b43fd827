package wire

import (
	"encoding/binary"

	"github.com/dartffi/bindgen/errors"
	"github.com/dartffi/bindgen/model"
)

// EnumValue selects a variant by its 1-based tag, with payload fields in
// declaration order. Flat enum values carry no fields.
type EnumValue struct {
	Tag    int
	Fields []any
}

type enumCodec struct {
	name     string
	variants [][]Codec
}

func newEnumCodec(e *model.Enum, res *resolver) (Codec, error) {
	c := enumCodec{name: e.Name}
	for _, v := range e.Variants {
		var fields []Codec
		for _, f := range v.Fields {
			fc, err := res.codec(f.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, fc)
		}
		c.variants = append(c.variants, fields)
	}
	return c, nil
}

func (c enumCodec) fields(v any) ([]Codec, EnumValue, error) {
	ev, ok := v.(EnumValue)
	if !ok {
		return nil, EnumValue{}, errors.InvalidData(errors.PhaseValidate, []string{c.name}, "expected wire.EnumValue")
	}
	if ev.Tag < 1 || ev.Tag > len(c.variants) {
		return nil, EnumValue{}, errors.InvalidEnumTag(errors.PhaseValidate, []string{c.name}, int32(ev.Tag), len(c.variants))
	}
	codecs := c.variants[ev.Tag-1]
	if len(ev.Fields) != len(codecs) {
		return nil, EnumValue{}, errors.InvalidData(errors.PhaseValidate, []string{c.name}, "variant field count mismatch")
	}
	return codecs, ev, nil
}

func (c enumCodec) AllocationSize(v any) (int, error) {
	codecs, ev, err := c.fields(v)
	if err != nil {
		return 0, err
	}
	size := 4
	for i, fc := range codecs {
		n, err := fc.AllocationSize(ev.Fields[i])
		if err != nil {
			return 0, err
		}
		size += n
	}
	return size, nil
}

func (c enumCodec) Write(v any, buf []byte, off int) (int, error) {
	codecs, ev, err := c.fields(v)
	if err != nil {
		return 0, err
	}
	if err := room(buf, off, 4); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(buf[off:], uint32(ev.Tag))
	written := 4
	for i, fc := range codecs {
		n, err := fc.Write(ev.Fields[i], buf, off+written)
		if err != nil {
			return 0, err
		}
		written += n
	}
	return written, nil
}

func (c enumCodec) Read(buf []byte, off int) (any, int, error) {
	if err := need(buf, off, 4); err != nil {
		return nil, 0, err
	}
	tag := int(int32(binary.BigEndian.Uint32(buf[off:])))
	if tag < 1 || tag > len(c.variants) {
		return nil, 0, errors.InvalidEnumTag(errors.PhaseDecode, []string{c.name}, int32(tag), len(c.variants))
	}
	codecs := c.variants[tag-1]
	consumed := 4
	ev := EnumValue{Tag: tag}
	for _, fc := range codecs {
		v, n, err := fc.Read(buf, off+consumed)
		if err != nil {
			return nil, 0, err
		}
		ev.Fields = append(ev.Fields, v)
		consumed += n
	}
	return ev, consumed, nil
}

type recordCodec struct {
	name   string
	fields []Codec
}

func newRecordCodec(r *model.Record, res *resolver) (Codec, error) {
	c := recordCodec{name: r.Name}
	for _, f := range r.Fields {
		fc, err := res.codec(f.Type)
		if err != nil {
			return nil, err
		}
		c.fields = append(c.fields, fc)
	}
	return c, nil
}

func (c recordCodec) values(v any) ([]any, error) {
	vals, ok := v.([]any)
	if !ok {
		return nil, errors.InvalidData(errors.PhaseValidate, []string{c.name}, "expected []any record fields")
	}
	if len(vals) != len(c.fields) {
		return nil, errors.InvalidData(errors.PhaseValidate, []string{c.name}, "record field count mismatch")
	}
	return vals, nil
}

func (c recordCodec) AllocationSize(v any) (int, error) {
	vals, err := c.values(v)
	if err != nil {
		return 0, err
	}
	size := 0
	for i, fc := range c.fields {
		n, err := fc.AllocationSize(vals[i])
		if err != nil {
			return 0, err
		}
		size += n
	}
	return size, nil
}

func (c recordCodec) Write(v any, buf []byte, off int) (int, error) {
	vals, err := c.values(v)
	if err != nil {
		return 0, err
	}
	written := 0
	for i, fc := range c.fields {
		n, err := fc.Write(vals[i], buf, off+written)
		if err != nil {
			return 0, err
		}
		written += n
	}
	return written, nil
}

func (c recordCodec) Read(buf []byte, off int) (any, int, error) {
	vals := make([]any, 0, len(c.fields))
	consumed := 0
	for _, fc := range c.fields {
		v, n, err := fc.Read(buf, off+consumed)
		if err != nil {
			return nil, 0, err
		}
		vals = append(vals, v)
		consumed += n
	}
	return vals, consumed, nil
}
