package core

// Frame is a raw text payload pushed to an observer.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend must never block.
	TrySend(Frame) error
	Close()
}
