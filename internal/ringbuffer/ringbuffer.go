// Package ringbuffer provides the fixed-capacity FIFO that stages rendered
// PCM between the synthesis path and the output stage.
package ringbuffer

import "sync"

// Buffer is a bounded FIFO of bytes. Write never clobbers unread data: it
// stores at most Free() bytes and reports how many were taken. Safe for a
// writer and a reader on different goroutines.
type Buffer struct {
	mu  sync.Mutex
	buf []byte
	r   int // next read position
	n   int // bytes currently buffered
}

// New creates a buffer holding up to capacity bytes.
func New(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, capacity)}
}

// Write appends up to Free() bytes from p and returns the number stored.
func (b *Buffer) Write(p []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	free := len(b.buf) - b.n
	if len(p) > free {
		p = p[:free]
	}
	if len(p) == 0 {
		return 0
	}

	w := (b.r + b.n) % len(b.buf)
	total := 0
	for len(p) > 0 {
		c := copy(b.buf[w:], p)
		p = p[c:]
		w = (w + c) % len(b.buf)
		total += c
	}
	b.n += total
	return total
}

// Read pops up to len(p) buffered bytes into p and returns the number popped.
func (b *Buffer) Read(p []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(p) > b.n {
		p = p[:b.n]
	}
	if len(p) == 0 {
		return 0
	}

	total := 0
	for len(p) > 0 {
		c := copy(p, b.buf[b.r:])
		p = p[c:]
		b.r = (b.r + c) % len(b.buf)
		b.n -= c
		total += c
	}
	return total
}

// Buffered returns the number of unread bytes.
func (b *Buffer) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

// Free returns the remaining capacity.
func (b *Buffer) Free() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf) - b.n
}

// Capacity returns the fixed buffer size.
func (b *Buffer) Capacity() int {
	return len(b.buf)
}
