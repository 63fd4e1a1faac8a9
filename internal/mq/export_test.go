package mq

import "context"

// Deliver exposes deliver to the external test package.
func Deliver(ctx context.Context, handler Handler, msg Message, s interface {
	Ack()
	Nack()
}) {
	deliver(ctx, handler, msg, s)
}
