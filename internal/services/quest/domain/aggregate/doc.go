// Package aggregate owns the challenge registry: the dense, append-only list
// of challenges and the per-account indexes of created, joined, and sponsored
// challenge ids.
//
// The registry is the single root state of the program. It is passed
// explicitly through Decide and Fold rather than held in a global.
package aggregate
