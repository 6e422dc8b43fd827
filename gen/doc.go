// Package gen is the binding generation engine: it turns a loaded interface
// model into one self-contained Dart FFI source unit.
//
// # Pipeline
//
// The package splits into pure naming, stateful registration, and emission:
//
//	oracle      Pure naming and type-mapping functions. Sanitized identifiers,
//	            canonical type names, converter names, FFI type labels, and
//	            the Error-to-Exception rewrite applied everywhere a type name
//	            reaches the output.
//	TypeHelper  The emission registry. Include(type) claims the type's
//	            canonical name, renders its codec exactly once, and recursively
//	            includes everything the codec depends on. Claim-before-render
//	            makes recursive type graphs terminate.
//	Generator   The driver. Walks the model's declarations through the
//	            registry, renders top-level function wrappers, and frames the
//	            result with the fixed runtime support layer and the native
//	            symbol table.
//
// # Codec contract
//
// Every emitted converter exposes the same static surface: lift, lower, read,
// write, allocationSize. read returns the decoded value together with the
// bytes consumed, and for any value the bytes consumed on decode equal
// allocationSize of that value on encode.
//
// # Async calls
//
// Async wrappers drive a native future through initiate, poll, complete and
// free entry points. The future handle is freed exactly once, when the
// wrapper leaves its call; a Dart future abandoned mid-poll keeps its native
// resources alive, which callers own as a known cost of cancellation-free
// futures.
package gen
