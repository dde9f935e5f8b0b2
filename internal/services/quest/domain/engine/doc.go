// Package engine runs one command at a time against the challenge registry:
// validate, authorize, decide, schedule follow-ups, journal and fold events,
// then pay out.
//
// The engine is not safe for concurrent use; callers serialize commands in
// front of it.
package engine
