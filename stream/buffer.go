package stream

// ChunkBuffer tracks how much of a growing snapshot has been consumed.
type ChunkBuffer struct {
	consumed int
}

// Advance returns the unconsumed part of snapshot and moves the offset to its
// end. A snapshot shorter than the consumed offset is a protocol violation.
func (b *ChunkBuffer) Advance(snapshot []byte) ([]byte, error) {
	if len(snapshot) < b.consumed {
		return nil, NewProtocolError(b.consumed, len(snapshot))
	}
	delta := snapshot[b.consumed:]
	b.consumed = len(snapshot)
	return delta, nil
}

// Consumed returns the current offset.
func (b *ChunkBuffer) Consumed() int {
	return b.consumed
}
