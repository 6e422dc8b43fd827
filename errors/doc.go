// Package errors provides structured error types for the binding generator.
//
// Every error carries a Phase (where in processing it occurred) and a Kind
// (what went wrong), plus an optional field path into the value or model
// being processed:
//
//	[decode] invalid_enum at result.status: unexpected enum case: tag 7 outside [1, 3]
//	[validate] out_of_range at args.count: type u8 - value 256 out of range for u8
//
// Errors are constructed either through the Builder:
//
//	errors.New(errors.PhaseEmit, errors.KindNotFound).
//	    TypeName("Shape").
//	    Detail("enum definition missing").
//	    Build()
//
// or through the convenience constructors (InvalidEnumTag, OutOfRange, ...).
//
// Errors support errors.Is matching on (Phase, Kind) pairs and Unwrap for
// cause chains.
package errors
