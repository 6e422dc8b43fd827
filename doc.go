// Package bindgen generates Dart FFI binding source from a language-neutral
// interface model.
//
// The generator consumes a JSON description of a native library's surface
// (enums, records, objects, callback interfaces, free functions) and emits a
// single self-contained Dart library: lift/lower codecs for every reachable
// type, object wrappers with finalizer-backed lifecycle, vtable plumbing for
// host-implemented callbacks, and a typed symbol table over DynamicLibrary.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	bindgen/             Root package with the Generate and OutputFile conveniences
//	├── model/           Interface model: declarations, type nodes, JSON loading,
//	│                    WIT type adaptation, derived native symbol names
//	├── gen/             Dart source emission: naming oracle, emission registry,
//	│                    per-kind renderers, runtime prelude, symbol table
//	├── wire/            Executable Go mirror of the generated byte layouts,
//	│                    handle maps, vtable dispatch and future polling
//	├── errors/          Structured error types for debugging
//	└── cmd/bindgen/     CLI: generate, list declarations, inspect WIT mappings,
//	                     browse the model interactively
//
// # Quick Start
//
// Generate a binding from a model file:
//
//	if err := bindgen.OutputFile("model.json", "", "lib.dart"); err != nil {
//	    log.Fatal(err)
//	}
//
// Or drive the pieces directly:
//
//	defs, err := model.LoadFile("model.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := bindgen.Generate(defs, &gen.Config{LibraryPath: "libgreet.so"}, nil)
//	fmt.Println(out)
//
// # Type System
//
// The model covers the boundary types the generated Dart can carry:
//
//   - Primitives: bool, u8-u64, i8-i64, f32, f64, string, bytes
//   - Temporal: duration, timestamp
//   - Compound: optional<T>, sequence<T>, map<K, V>
//   - Named: enum (flat or payload), record, object, callback interface
//
// Integers cross the boundary big-endian, floats little-endian, matching the
// ByteData accessors the generated codecs use. The wire package encodes the
// same layouts in Go so the contract is testable without a Dart toolchain.
//
// # Determinism
//
// Generation is deterministic: declarations emit in first-reference order
// and running the generator twice over the same model produces identical
// bytes. Renames and symbol-prefix overrides from gen.Config never touch
// the input model; the generator works on its own copy.
package bindgen
