package gen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dartffi/bindgen/model"
)

// https://dart.dev/guides/language/language-tour#keywords
var reservedIdentifiers = map[string]bool{
	"abstract": true, "as": true, "assert": true, "async": true,
	"await": true, "break": true, "case": true, "catch": true,
	"class": true, "const": true, "continue": true, "covariant": true,
	"default": true, "deferred": true, "do": true, "dynamic": true,
	"else": true, "enum": true, "export": true, "extends": true,
	"extension": true, "external": true, "factory": true, "false": true,
	"final": true, "finally": true, "for": true, "Function": true,
	"get": true, "hide": true, "if": true, "implements": true,
	"import": true, "in": true, "interface": true, "is": true,
	"late": true, "library": true, "mixin": true, "new": true,
	"null": true, "on": true, "operator": true, "part": true,
	"required": true, "rethrow": true, "return": true, "set": true,
	"show": true, "static": true, "super": true, "switch": true,
	"sync": true, "this": true, "throw": true, "true": true,
	"try": true, "typedef": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true,
}

// SanitizeIdentifier appends an underscore if id is a Dart reserved word.
func SanitizeIdentifier(id string) string {
	if reservedIdentifiers[id] {
		return id + "_"
	}
	return id
}

// ClassName renders the idiomatic Dart class name for enums, records,
// objects and errors. A name that is exactly "Error", or ends in "Error",
// is rewritten with an Exception suffix to avoid clashing with Dart's core
// Error type; the same rewrite must be applied to every reference site.
func ClassName(nm string) string {
	name := SanitizeIdentifier(upperCamel(nm))
	if name == "Error" {
		return "ErrorException"
	}
	if stripped, ok := strings.CutSuffix(name, "Error"); ok {
		return stripped + "Exception"
	}
	return name
}

// ExceptionSafeName replaces every occurrence of "Error" with "Exception".
// Used on composed canonical names and labels whose inner type was renamed
// by ClassName, so defining and referencing occurrences stay consistent.
func ExceptionSafeName(name string) string {
	return strings.ReplaceAll(name, "Error", "Exception")
}

// FuncName renders the idiomatic Dart function name.
func FuncName(nm string) string {
	return SanitizeIdentifier(lowerCamel(nm))
}

// VarName renders the idiomatic Dart variable name.
func VarName(nm string) string {
	return SanitizeIdentifier(lowerCamel(nm))
}

// EnumVariantName renders the idiomatic Dart enum variant name.
func EnumVariantName(nm string) string {
	return SanitizeIdentifier(lowerCamel(nm))
}

// CanonicalName computes the unique, structurally-derived identifier for a
// type node. Compounds compose the inner type's canonical name so the same
// node always produces the same name wherever it occurs.
func CanonicalName(t model.Type) string {
	switch t.Kind {
	case model.KindUInt8:
		return "UInt8"
	case model.KindInt8:
		return "Int8"
	case model.KindUInt16:
		return "UInt16"
	case model.KindInt16:
		return "Int16"
	case model.KindUInt32:
		return "UInt32"
	case model.KindInt32:
		return "Int32"
	case model.KindUInt64:
		return "UInt64"
	case model.KindInt64:
		return "Int64"
	case model.KindFloat32:
		return "Double32"
	case model.KindFloat64:
		return "Double64"
	case model.KindBoolean:
		return "Bool"
	case model.KindString:
		return "String"
	case model.KindBytes:
		return "Uint8List"
	case model.KindDuration:
		return "Duration"
	case model.KindTimestamp:
		return "Timestamp"
	case model.KindOptional:
		return "Optional" + CanonicalName(*t.Inner)
	case model.KindSequence:
		return "Sequence" + CanonicalName(*t.Inner)
	case model.KindMap:
		return "Map" + CanonicalName(*t.Key) + "To" + CanonicalName(*t.Value)
	case model.KindEnum, model.KindRecord, model.KindCustom:
		return ClassName(t.Name)
	case model.KindObject:
		return ClassName(t.Name)
	case model.KindCallbackInterface:
		return "CallbackInterface" + ClassName(t.Name)
	default:
		panic(fmt.Sprintf("canonical name for unknown kind %q", t.Kind))
	}
}

// TypeLabel renders the Dart-facing type of a node.
func TypeLabel(t model.Type) string {
	switch t.Kind {
	case model.KindUInt8, model.KindInt8, model.KindUInt16, model.KindInt16,
		model.KindUInt32, model.KindInt32, model.KindUInt64, model.KindInt64:
		return "int"
	case model.KindFloat32, model.KindFloat64:
		return "double"
	case model.KindBoolean:
		return "bool"
	case model.KindString:
		return "String"
	case model.KindBytes:
		return "Uint8List"
	case model.KindDuration:
		return "Duration"
	case model.KindTimestamp:
		return "DateTime"
	case model.KindOptional:
		return TypeLabel(*t.Inner) + "?"
	case model.KindSequence:
		return "List<" + TypeLabel(*t.Inner) + ">"
	case model.KindMap:
		return "Map<" + TypeLabel(*t.Key) + ", " + TypeLabel(*t.Value) + ">"
	case model.KindEnum, model.KindRecord, model.KindObject,
		model.KindCallbackInterface, model.KindCustom:
		return ClassName(t.Name)
	default:
		panic(fmt.Sprintf("type label for unknown kind %q", t.Kind))
	}
}

// ReturnLabel renders a Dart return type; nil is void.
func ReturnLabel(t *model.Type) string {
	if t == nil {
		return "void"
	}
	return TypeLabel(*t)
}

// ConverterName names the codec class for a type. Objects act as their own
// converter through static methods; callback-trait objects route through
// the callback-interface converter.
func ConverterName(t model.Type) string {
	if t.Kind == model.KindObject {
		if t.Impl == model.ImplCallbackTrait {
			return "FfiConverterCallbackInterface" + ClassName(t.Name)
		}
		return ClassName(t.Name)
	}
	return "FfiConverter" + CanonicalName(t)
}

// NativeTypeLabel renders the dart:ffi native type for a node as it crosses
// the boundary; nil is Void.
func NativeTypeLabel(t *model.Type) string {
	if t == nil {
		return "Void"
	}
	switch t.Kind {
	case model.KindUInt8:
		return "Uint8"
	case model.KindInt8:
		return "Int8"
	case model.KindUInt16:
		return "Uint16"
	case model.KindInt16:
		return "Int16"
	case model.KindUInt32:
		return "Uint32"
	case model.KindInt32:
		return "Int32"
	case model.KindUInt64:
		return "Uint64"
	case model.KindInt64, model.KindDuration, model.KindTimestamp:
		return "Int64"
	case model.KindFloat32:
		return "Float"
	case model.KindFloat64:
		return "Double"
	case model.KindBoolean:
		return "Int8"
	case model.KindEnum:
		return "Int32"
	case model.KindObject, model.KindCallbackInterface:
		return "Pointer<Void>"
	default:
		return "RustBuffer"
	}
}

// NativeDartTypeLabel renders the Dart-side view of the native type; nil is
// void.
func NativeDartTypeLabel(t *model.Type) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case model.KindUInt8, model.KindInt8, model.KindUInt16, model.KindInt16,
		model.KindUInt32, model.KindInt32, model.KindUInt64, model.KindInt64,
		model.KindBoolean, model.KindEnum, model.KindDuration, model.KindTimestamp:
		return "int"
	case model.KindFloat32, model.KindFloat64:
		return "double"
	case model.KindObject, model.KindCallbackInterface:
		return "Pointer<Void>"
	default:
		return "RustBuffer"
	}
}

// LowerExpr renders the expression lowering a Dart value for the boundary
// crossing. Register-passed numerics lower as themselves.
func LowerExpr(t model.Type, inner string) string {
	switch t.Kind {
	case model.KindUInt8, model.KindInt8, model.KindUInt16, model.KindInt16,
		model.KindUInt32, model.KindInt32, model.KindUInt64, model.KindInt64,
		model.KindFloat32, model.KindFloat64:
		return inner
	default:
		return ExceptionSafeName(ConverterName(t)) + ".lower(" + inner + ")"
	}
}

// LiftRef names the function lifting a wire value back into Dart.
func LiftRef(t model.Type) string {
	return ExceptionSafeName(ConverterName(t)) + ".lift"
}

// Callback vtable naming. One fixed scheme shared between the typedefs, the
// vtable struct, the trampoline pointers, and the init function.

func callbackVTableName(name string) string {
	return "UniffiVTableCallbackInterface" + name
}

func callbackMethodTypedef(name string, index int) string {
	return fmt.Sprintf("UniffiCallbackInterface%sMethod%d", name, index)
}

func callbackFreeTypedef(name string) string {
	return "UniffiCallbackInterface" + name + "Free"
}

func callbackInitFn(name string) string {
	return "init" + name + "VTable"
}

// upperCamel converts snake_case, kebab-case or camelCase to PascalCase.
func upperCamel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upperNext := true
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == ' ':
			upperNext = true
		case upperNext:
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// lowerCamel converts snake_case, kebab-case or PascalCase to camelCase.
func lowerCamel(s string) string {
	uc := upperCamel(s)
	if uc == "" {
		return uc
	}
	return string(unicode.ToLower(rune(uc[0]))) + uc[1:]
}
