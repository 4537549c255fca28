// Package eventhub connects shothook to the host event bus.
//
// Handlers subscribe with simple `key=value and key=value` expressions over
// dotted event paths. The Hub dispatches each event to matching handlers in
// priority order on a single goroutine, publishes non-nil handler results as
// replies on ftrack.meta.reply and converts handler errors into
// {success: false} replies. Transports are pluggable: MemoryTransport for
// tests and single-process use, AMQPTransport for a RabbitMQ topic exchange.
package eventhub
