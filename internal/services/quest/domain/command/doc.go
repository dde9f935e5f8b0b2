// Package command defines the challenge command envelope and the contract used
// across the write path.
//
// Commands carry caller intent as delivered by the host: the calling account,
// the value attached to the message, and a JSON payload. The registry
// normalizes commands and records which types only the program itself may
// send, so deciders only ever see well-formed input.
package command
