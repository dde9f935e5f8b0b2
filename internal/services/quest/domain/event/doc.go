// Package event defines the challenge event envelope and the event-type
// registry used on the write path.
//
// Events are immutable facts emitted by accepted decisions. The registry
// checks type registration, challenge addressing, and payload validity before
// the journal assigns a sequence number and content hash. Replaying the
// journal in sequence order rebuilds the registry state exactly.
package event
