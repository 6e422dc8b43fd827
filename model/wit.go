package model

import (
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/dartffi/bindgen/errors"
)

// FromWITType adapts a parsed WIT type expression into a model type node,
// registering any named definitions it contains into defs. It consumes the
// wit package's already-resolved representation; no parsing happens here.
//
// Mapping notes: list<u8> becomes the dedicated bytes kind, named variants
// become payload enums, named records become records, resources become
// native-backed objects. WIT has no map type, and anonymous variants, enums
// and tuples cannot be represented because model references are by name.
func FromWITType(t wit.Type, defs *Definitions) (Type, error) {
	defs.index()
	switch v := t.(type) {
	case wit.Bool:
		return Bool(), nil
	case wit.U8:
		return U8(), nil
	case wit.S8:
		return I8(), nil
	case wit.U16:
		return U16(), nil
	case wit.S16:
		return I16(), nil
	case wit.U32:
		return U32(), nil
	case wit.S32:
		return I32(), nil
	case wit.U64:
		return U64(), nil
	case wit.S64:
		return I64(), nil
	case wit.F32:
		return F32(), nil
	case wit.F64:
		return F64(), nil
	case wit.Char:
		// Unicode scalar value crosses the boundary as its code point.
		return U32(), nil
	case wit.String:
		return String(), nil
	case *wit.TypeDef:
		return fromWITTypeDef(v, defs)
	default:
		return Type{}, errors.Unsupported(errors.PhaseModel, fmt.Sprintf("WIT type %T", t))
	}
}

func fromWITTypeDef(td *wit.TypeDef, defs *Definitions) (Type, error) {
	name := ""
	if td.Name != nil {
		name = *td.Name
	}

	switch kind := td.Kind.(type) {
	case *wit.List:
		inner, err := FromWITType(kind.Type, defs)
		if err != nil {
			return Type{}, err
		}
		if inner.Kind == KindUInt8 {
			return Bytes(), nil
		}
		return Sequence(inner), nil

	case *wit.Option:
		inner, err := FromWITType(kind.Type, defs)
		if err != nil {
			return Type{}, err
		}
		return Optional(inner), nil

	case *wit.Record:
		if name == "" {
			return Type{}, errors.Unsupported(errors.PhaseModel, "anonymous WIT record")
		}
		if _, ok := defs.Record(name); !ok {
			rec := &Record{Name: name}
			// Register before recursing so self references terminate.
			defs.Records = append(defs.Records, rec)
			defs.records[name] = rec
			for _, f := range kind.Fields {
				ft, err := FromWITType(f.Type, defs)
				if err != nil {
					return Type{}, err
				}
				rec.Fields = append(rec.Fields, &Field{Name: f.Name, Type: ft})
			}
		}
		return RecordRef(name), nil

	case *wit.Enum:
		if name == "" {
			return Type{}, errors.Unsupported(errors.PhaseModel, "anonymous WIT enum")
		}
		if _, ok := defs.Enum(name); !ok {
			e := &Enum{Name: name}
			for _, c := range kind.Cases {
				e.Variants = append(e.Variants, &Variant{Name: c.Name})
			}
			defs.Enums = append(defs.Enums, e)
			defs.enums[name] = e
		}
		return EnumRef(name), nil

	case *wit.Variant:
		if name == "" {
			return Type{}, errors.Unsupported(errors.PhaseModel, "anonymous WIT variant")
		}
		if _, ok := defs.Enum(name); !ok {
			e := &Enum{Name: name}
			defs.Enums = append(defs.Enums, e)
			defs.enums[name] = e
			for _, c := range kind.Cases {
				variant := &Variant{Name: c.Name}
				if c.Type != nil {
					ft, err := FromWITType(c.Type, defs)
					if err != nil {
						return Type{}, err
					}
					variant.Fields = []*Field{{Name: "value", Type: ft}}
				}
				e.Variants = append(e.Variants, variant)
			}
		}
		return EnumRef(name), nil

	case wit.Type:
		// Type alias: unwrap.
		return FromWITType(kind, defs)

	default:
		if name != "" {
			return Type{}, errors.New(errors.PhaseModel, errors.KindUnsupported).
				TypeName(name).
				Detail("WIT kind %T", td.Kind).
				Build()
		}
		return Type{}, errors.Unsupported(errors.PhaseModel, fmt.Sprintf("WIT kind %T", td.Kind))
	}
}

// ParseWITType parses a WIT type expression (through the wit package's own
// parser) and adapts it into a model type node.
func ParseWITType(expr string, defs *Definitions) (Type, error) {
	t, err := wit.ParseType(expr)
	if err != nil {
		return Type{}, errors.Wrap(errors.PhaseModel, errors.KindInvalidData, err, "parse WIT type")
	}
	defs.index()
	return FromWITType(t, defs)
}
