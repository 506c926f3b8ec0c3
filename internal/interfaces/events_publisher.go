package interfaces

// EventPublisher delivers domain events to an external broker. Publishing is
// best-effort from the engine's point of view: a failed publish never fails
// the operation that produced the event.
type EventPublisher interface {
	Publish(topic string, event any) error
}
