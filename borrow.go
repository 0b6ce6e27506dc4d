package archon

import "sync/atomic"

// borrowState implements the reader/writer discipline archetype columns and
// resource cells share: any number of concurrent readers, or exactly one
// writer, never both. state encodes the count: 0 is free, a positive value
// is that many readers, -1 is a single writer.
type borrowState struct {
	state atomic.Int32
}

const borrowWriter = -1

// tryRead acquires a shared borrow, failing if a writer currently holds it.
func (b *borrowState) tryRead() bool {
	for {
		cur := b.state.Load()
		if cur < 0 {
			return false
		}
		if b.state.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

func (b *borrowState) releaseRead() {
	b.state.Add(-1)
}

// tryWrite acquires the exclusive borrow, failing if any borrow (read or
// write) is outstanding.
func (b *borrowState) tryWrite() bool {
	return b.state.CompareAndSwap(0, borrowWriter)
}

func (b *borrowState) releaseWrite() {
	b.state.CompareAndSwap(borrowWriter, 0)
}

// columnBorrow is a RAII-style guard returned by acquiring a column/resource
// borrow; releasing it twice is harmless.
type columnBorrow struct {
	state    *borrowState
	write    bool
	released bool
}

func (g *columnBorrow) release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	if g.write {
		g.state.releaseWrite()
	} else {
		g.state.releaseRead()
	}
}

func acquireRead(state *borrowState) (*columnBorrow, bool) {
	if !state.tryRead() {
		return nil, false
	}
	return &columnBorrow{state: state}, true
}

func acquireWrite(state *borrowState) (*columnBorrow, bool) {
	if !state.tryWrite() {
		return nil, false
	}
	return &columnBorrow{state: state, write: true}, true
}
