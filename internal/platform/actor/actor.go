// Package actor serializes calls through a single goroutine so a handler
// never runs concurrently with itself.
package actor

import (
	"context"
	"errors"
)

// ErrStopped is returned once the actor's context is done.
var ErrStopped = errors.New("actor: stopped")

const defaultInboxSize = 32

// Handler processes one message.
type Handler[Input, Output any] func(ctx context.Context, input Input) (Output, error)

// Actor runs Handler for one message at a time, in arrival order.
type Actor[Input, Output any] struct {
	handler Handler[Input, Output]
	inbox   chan message[Input, Output]
	done    chan struct{}
}

type message[Input, Output any] struct {
	ctx   context.Context
	input Input
	reply chan reply[Output]
}

type reply[Output any] struct {
	output Output
	err    error
}

// New starts an actor that runs until ctx is done.
func New[Input, Output any](ctx context.Context, handler Handler[Input, Output]) *Actor[Input, Output] {
	a := &Actor[Input, Output]{
		handler: handler,
		inbox:   make(chan message[Input, Output], defaultInboxSize),
		done:    make(chan struct{}),
	}
	go a.run(ctx)
	return a
}

func (a *Actor[Input, Output]) run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-a.inbox:
			output, err := a.handler(msg.ctx, msg.input)
			// reply is buffered; a caller that gave up does not block the actor.
			msg.reply <- reply[Output]{output: output, err: err}
		}
	}
}

// Call enqueues input and waits for the handler's result.
//
// Once a message is accepted it runs to completion even if ctx is cancelled
// while waiting; Call then returns the context error.
func (a *Actor[Input, Output]) Call(ctx context.Context, input Input) (Output, error) {
	var zero Output
	msg := message[Input, Output]{
		ctx:   context.WithoutCancel(ctx),
		input: input,
		reply: make(chan reply[Output], 1),
	}
	select {
	case a.inbox <- msg:
	case <-a.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, context.Cause(ctx)
	}
	select {
	case r := <-msg.reply:
		return r.output, r.err
	case <-a.done:
		// The final message may still have been answered.
		select {
		case r := <-msg.reply:
			return r.output, r.err
		default:
			return zero, ErrStopped
		}
	case <-ctx.Done():
		return zero, context.Cause(ctx)
	}
}

// Done is closed once the actor stops.
func (a *Actor[Input, Output]) Done() <-chan struct{} {
	return a.done
}
