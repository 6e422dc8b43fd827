// Package wire implements, in Go, the binary protocol the generated Dart
// bindings speak: the same length-prefixed buffer layout, tag scheme, handle
// passing, call-status channel and future lifecycle.
//
// The package is the executable ground truth for the protocol. The generator
// emits Dart source and cannot run it; these codecs encode and decode real
// values with identical offset arithmetic, so protocol-level properties are
// ordinary Go tests:
//
//   - decode(encode(v)) round-trips and consumes exactly allocationSize(v)
//   - enum tags are 1-based and a tag outside [1, N] fails decode
//   - optionals spend one presence byte, sequences and maps a 4-byte count
//   - range-constrained integers reject out-of-range values before encoding
//
// Integer values are carried as int64 regardless of declared width, matching
// the host language's single integer type; width and sign constraints are
// enforced by the codecs, not the representation.
//
// HandleMap, Vtable and Future mirror the callback and async machinery the
// generated source builds over the same protocol.
package wire
