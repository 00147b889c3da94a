package rnet

import "github.com/valyala/bytebufferpool"

// bufferPool recycles the byte slices backing every Buffer, avoiding a
// fresh allocation on every grow for short-lived connection buffers.
var bufferPool bytebufferpool.Pool

// Buffer is a growable byte region with independent read/write cursors,
// readable span [readPtr, writePtr) and writable span [writePtr, cap). A
// fixed Buffer never grows past its initial capacity.
type Buffer struct {
	bb       *bytebufferpool.ByteBuffer
	readPtr  int
	writePtr int
	fixed    bool
}

// NewBuffer returns a growable Buffer with at least the given capacity.
func NewBuffer(capacity int) *Buffer {
	b := &Buffer{bb: bufferPool.Get()}
	b.bb.B = growSlice(b.bb.B[:0], capacity)
	return b
}

// NewFixedBuffer returns a Buffer that never grows past capacity; Write
// and Inject fail instead of reallocating once that capacity is reached.
func NewFixedBuffer(capacity int) *Buffer {
	b := NewBuffer(capacity)
	b.fixed = true
	return b
}

func growSlice(b []byte, n int) []byte {
	if cap(b) >= n {
		return b[:n]
	}
	return append(b[:cap(b)], make([]byte, n-cap(b))...)
}

// Release returns the backing storage to the pool. The Buffer must not be
// used afterwards.
func (b *Buffer) Release() {
	if b.bb != nil {
		bufferPool.Put(b.bb)
		b.bb = nil
	}
}

// Capacity returns the total backing size.
func (b *Buffer) Capacity() int { return len(b.bb.B) }

// ReadableSize returns the number of bytes available to Read.
func (b *Buffer) ReadableSize() int { return b.writePtr - b.readPtr }

// WritableSize returns the number of bytes available to Write/Fill.
func (b *Buffer) WritableSize() int { return b.Capacity() - b.writePtr }

// rewind resets both cursors to zero once the readable span is empty,
// maintaining the invariant that an empty buffer always starts at offset 0.
func (b *Buffer) rewind() {
	if b.readPtr == b.writePtr {
		b.readPtr, b.writePtr = 0, 0
	}
}

// grow replaces the backing storage so that exactly `extra` bytes of new
// writable space follow the copied readable span; it is the one place
// capacity changes.
func (b *Buffer) grow(extra int) {
	if extra == 0 {
		return
	}
	readable := b.ReadableSize()
	nb := bufferPool.Get()
	nb.B = growSlice(nb.B[:0], extra+readable)
	if readable > 0 {
		copy(nb.B, b.bb.B[b.readPtr:b.writePtr])
	}
	bufferPool.Put(b.bb)
	b.bb = nb
	b.writePtr = readable
	b.readPtr = 0
}

// Write appends n bytes, growing when the writable span is too small so
// that twice the larger of the current capacity and n becomes writable
// after the readable span, unless the buffer is fixed, in which case it
// fails without copying anything.
func (b *Buffer) Write(src []byte) bool {
	n := len(src)
	if b.WritableSize() < n {
		if b.fixed {
			return false
		}
		ncap := b.Capacity()
		if n > ncap {
			ncap = n
		}
		b.grow(ncap * 2)
	}
	copy(b.bb.B[b.writePtr:], src)
	b.writePtr += n
	return true
}

// Fill copies as much of src as fits in the writable span without
// growing, returning the number of bytes actually copied.
func (b *Buffer) Fill(src []byte) int {
	n := len(src)
	if w := b.WritableSize(); n > w {
		n = w
	}
	if n == 0 {
		return 0
	}
	copy(b.bb.B[b.writePtr:], src[:n])
	b.writePtr += n
	return n
}

// Inject appends exactly len(src) bytes, growing so that exactly that much
// is writable (no doubling) when necessary; after a call that had to grow,
// writePtr == Capacity.
// It is the draining counterpart for the swap-buffer overflow path, which
// already knows the precise amount left to append.
func (b *Buffer) Inject(src []byte) bool {
	n := len(src)
	if b.WritableSize() < n {
		if b.fixed {
			return false
		}
		b.grow(n)
	}
	copy(b.bb.B[b.writePtr:], src)
	b.writePtr += n
	return true
}

// Read advances readPtr by min(size, ReadableSize()) and returns the
// consumed region together with the actual amount advanced. If the
// readable span becomes empty, the buffer rewinds.
func (b *Buffer) Read(size int) ([]byte, int) {
	n := size
	if r := b.ReadableSize(); n > r {
		n = r
	}
	mem := b.bb.B[b.readPtr : b.readPtr+n]
	b.readPtr += n
	b.rewind()
	return mem, n
}

// WriteAccessor is a scoped view over a Buffer's writable tail; committing
// advances writePtr by the committed size.
type WriteAccessor struct {
	buf       *Buffer
	committed int
}

// GetWriteAccessor returns a scoped view of the current writable span.
// The view is invalidated by any other mutation on the buffer.
func (b *Buffer) GetWriteAccessor() WriteAccessor { return WriteAccessor{buf: b} }

// Address returns the writable tail.
func (a *WriteAccessor) Address() []byte { return a.buf.bb.B[a.buf.writePtr:] }

// Size returns the current length of the buffer's writable tail.
func (a *WriteAccessor) Size() int { return a.buf.WritableSize() }

// SetCommittedSize records how many of the addressed bytes were actually
// written, to be applied on Commit.
func (a *WriteAccessor) SetCommittedSize(n int) { a.committed = n }

// Commit advances the buffer's writePtr by the committed size.
func (a *WriteAccessor) Commit() {
	a.buf.writePtr += a.committed
	a.committed = 0
}

// ReadAccessor is a scoped view over a Buffer's readable span; committing
// advances readPtr by the committed size and rewinds if now empty.
type ReadAccessor struct {
	buf       *Buffer
	committed int
}

// GetReadAccessor returns a scoped view of the current readable span.
func (b *Buffer) GetReadAccessor() ReadAccessor { return ReadAccessor{buf: b} }

// Address returns the readable span.
func (a *ReadAccessor) Address() []byte { return a.buf.bb.B[a.buf.readPtr:a.buf.writePtr] }

// Size returns the current length of the buffer's readable span.
func (a *ReadAccessor) Size() int { return a.buf.ReadableSize() }

// SetCommittedSize records how many of the addressed bytes were actually
// consumed, to be applied on Commit.
func (a *ReadAccessor) SetCommittedSize(n int) { a.committed = n }

// Commit advances the buffer's readPtr by the committed size and rewinds
// the buffer if the readable span is now empty.
func (a *ReadAccessor) Commit() {
	a.buf.readPtr += a.committed
	a.committed = 0
	a.buf.rewind()
}
