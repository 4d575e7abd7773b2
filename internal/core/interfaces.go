package core

import "time"

// Frame is a marshaled outbound signaling message.
type Frame []byte

// SignalConnection abstracts one live client transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// DeliveryReport reports per-connection fan-out outcome.
type DeliveryReport struct {
	Delivered int
	Failed    []SignalConnection
}

// Clock is the time source for the store and supervisor, injectable in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
