package rnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferWriteReadIdentity(t *testing.T) {
	b := NewBuffer(8)
	defer b.Release()

	payload := []byte("hello world")
	assert.True(t, b.Write(payload), "expected growable buffer to accept a write larger than its initial capacity")

	got, n := b.Read(len(payload))
	assert.Equal(t, len(payload), n, "expected Read to return every byte written")
	assert.Equal(t, payload, got, "expected Read to return the exact bytes written")
}

func TestBufferRewindAfterDrain(t *testing.T) {
	b := NewBuffer(16)
	defer b.Release()

	assert.True(t, b.Write([]byte("abcd")))
	_, n := b.Read(4)
	assert.Equal(t, 4, n)

	assert.Equal(t, b.Capacity(), b.ReadableSize()+b.WritableSize(), "expected readable+writable to equal capacity after a rewind")
	assert.Equal(t, 0, b.ReadableSize(), "expected the buffer to be empty after draining everything written")
}

func TestBufferFillNeverGrows(t *testing.T) {
	b := NewFixedBuffer(4)
	defer b.Release()

	n := b.Fill([]byte("abcdef"))
	assert.Equal(t, 4, n, "expected Fill to copy only as much as fits without growing")
	assert.Equal(t, 0, b.WritableSize())
}

func TestFixedBufferWriteFailsWhenFull(t *testing.T) {
	b := NewFixedBuffer(4)
	defer b.Release()

	assert.True(t, b.Write([]byte("abcd")))
	assert.False(t, b.Write([]byte("e")), "expected a fixed buffer past capacity to reject Write rather than grow")
}

func TestBufferInjectGrowsExactly(t *testing.T) {
	b := NewBuffer(4)
	defer b.Release()

	assert.True(t, b.Write([]byte("ab")))
	overflow := []byte("cdefgh")
	assert.True(t, b.Inject(overflow))
	assert.Equal(t, b.Capacity(), b.ReadableSize(), "expected Inject to leave writePtr at capacity with nothing further pending")

	got, n := b.Read(b.ReadableSize())
	assert.Equal(t, n, len(got))
	assert.Equal(t, "abcdefgh", string(got))
}

func TestBufferAccessorsRoundTrip(t *testing.T) {
	b := NewBuffer(16)
	defer b.Release()

	wa := b.GetWriteAccessor()
	n := copy(wa.Address(), []byte("xyz"))
	wa.SetCommittedSize(n)
	wa.Commit()
	assert.Equal(t, 3, b.ReadableSize())

	ra := b.GetReadAccessor()
	assert.Equal(t, []byte("xyz"), ra.Address())
	ra.SetCommittedSize(ra.Size())
	ra.Commit()
	assert.Equal(t, 0, b.ReadableSize(), "expected a full ReadAccessor commit to rewind the buffer")
}
