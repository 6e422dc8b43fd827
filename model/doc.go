// Package model holds the interface-description model consumed by the
// generator.
//
// The model is produced by an upstream frontend that parses and validates a
// native library's interface description. This package only represents and
// loads it; nothing here re-derives or re-validates frontend decisions.
//
// # Type nodes
//
// Type is a closed tagged variant over primitive kinds, the three anonymous
// compounds (optional, sequence, map) and named references (enum, record,
// object, callback interface, custom). Cycles in the type graph only occur
// through named references, so traversal resolves names through Definitions
// instead of expanding structurally.
//
// # Definitions
//
// Definitions is the arena of declarations by name: enums, records, objects,
// callback interfaces and top-level functions, plus the namespace and the set
// of type names used as error (throws) types. Each callable carries the
// native entry-point symbol names declared by the frontend (call, clone,
// free, and the async poll/complete/free triple).
//
// # Loading
//
// Load decodes the frontend's JSON serialization of the model. FromWITType
// adapts a parsed WIT type expression into a model type node for frontends
// that speak WIT instead.
package model
