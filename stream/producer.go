package stream

import (
	"context"
	"io"
	"iter"
)

// Producer yields outbound chunks on demand. Next returns io.EOF when there
// are no more chunks. A Producer that also implements io.Closer is closed
// once the outbound side is finished.
type Producer interface {
	Next(ctx context.Context) ([]byte, error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc func(ctx context.Context) ([]byte, error)

// Next implements Producer.
func (f ProducerFunc) Next(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// Chunks produces the given chunks in order.
func Chunks(chunks ...[]byte) Producer {
	i := 0
	return ProducerFunc(func(ctx context.Context) ([]byte, error) {
		if i >= len(chunks) {
			return nil, io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	})
}

// FromChannel produces chunks received on ch until it is closed.
func FromChannel(ch <-chan []byte) Producer {
	return ProducerFunc(func(ctx context.Context) ([]byte, error) {
		select {
		case c, ok := <-ch:
			if !ok {
				return nil, io.EOF
			}
			return c, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

// FromSeq produces chunks from a sequence, pulling lazily.
func FromSeq(seq iter.Seq[[]byte]) Producer {
	next, stop := iter.Pull(seq)
	return &seqProducer{next: next, stop: stop}
}

type seqProducer struct {
	next func() ([]byte, bool)
	stop func()
}

func (p *seqProducer) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := p.next()
	if !ok {
		return nil, io.EOF
	}
	return c, nil
}

func (p *seqProducer) Close() error {
	p.stop()
	return nil
}
