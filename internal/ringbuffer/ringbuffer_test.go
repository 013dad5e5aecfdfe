package ringbuffer

import (
	"bytes"
	"testing"
)

func TestWriteThenRead(t *testing.T) {
	b := New(16)
	in := []byte{1, 2, 3, 4, 5}

	if n := b.Write(in); n != len(in) {
		t.Fatalf("Write = %d, want %d", n, len(in))
	}
	if got := b.Buffered(); got != len(in) {
		t.Fatalf("Buffered = %d, want %d", got, len(in))
	}

	out := make([]byte, len(in))
	if n := b.Read(out); n != len(in) {
		t.Fatalf("Read = %d, want %d", n, len(in))
	}
	if !bytes.Equal(out, in) {
		t.Fatalf("Read = %v, want %v", out, in)
	}
	if got := b.Buffered(); got != 0 {
		t.Fatalf("Buffered after drain = %d, want 0", got)
	}
}

func TestWrapAround(t *testing.T) {
	b := New(8)

	b.Write([]byte{1, 2, 3, 4, 5, 6})
	out := make([]byte, 4)
	b.Read(out) // read pointer now at 4

	// This write crosses the physical end of the buffer.
	if n := b.Write([]byte{7, 8, 9, 10}); n != 4 {
		t.Fatalf("wrapping Write = %d, want 4", n)
	}

	got := make([]byte, 6)
	if n := b.Read(got); n != 6 {
		t.Fatalf("wrapping Read = %d, want 6", n)
	}
	want := []byte{5, 6, 7, 8, 9, 10}
	if !bytes.Equal(got, want) {
		t.Fatalf("Read = %v, want %v", got, want)
	}
}

func TestWriteNeverClobbers(t *testing.T) {
	b := New(4)
	b.Write([]byte{1, 2, 3})

	// Only one byte of free space; the rest must be refused, not overwrite.
	if n := b.Write([]byte{4, 5, 6}); n != 1 {
		t.Fatalf("over-capacity Write = %d, want 1", n)
	}

	out := make([]byte, 4)
	if n := b.Read(out); n != 4 {
		t.Fatalf("Read = %d, want 4", n)
	}
	want := []byte{1, 2, 3, 4}
	if !bytes.Equal(out, want) {
		t.Fatalf("Read = %v, want %v", out, want)
	}
}

func TestShortRead(t *testing.T) {
	b := New(8)
	b.Write([]byte{1, 2})

	out := make([]byte, 8)
	if n := b.Read(out); n != 2 {
		t.Fatalf("Read = %d, want 2", n)
	}
	if out[0] != 1 || out[1] != 2 {
		t.Fatalf("Read = %v, want leading 1 2", out[:2])
	}
	if n := b.Read(out); n != 0 {
		t.Fatalf("Read on empty = %d, want 0", n)
	}
}

func TestFreeAndCapacity(t *testing.T) {
	b := New(10)
	if b.Capacity() != 10 || b.Free() != 10 {
		t.Fatalf("fresh buffer: capacity %d free %d", b.Capacity(), b.Free())
	}
	b.Write(make([]byte, 7))
	if got := b.Free(); got != 3 {
		t.Fatalf("Free = %d, want 3", got)
	}
}
