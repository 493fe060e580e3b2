package chat

// Conn is one live client connection as seen by the registries and the
// dispatch engine. Implementations own the underlying transport; the
// registries hold lookup references only and must never keep a closed
// connection alive.
type Conn interface {
	// ID returns the opaque connection handle, unique per connection.
	ID() string

	// UserID returns the authenticated identity bound to the connection.
	// It is set once at connect time and immutable thereafter.
	UserID() string

	// Enqueue offers an encoded outbound event to the connection's send
	// queue without blocking. It reports false when the queue is full or
	// the connection is gone; the event is dropped in that case so one
	// slow connection never stalls fan-out to its siblings.
	Enqueue(event []byte) bool
}
