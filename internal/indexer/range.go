package indexer

// MaxBlockRange bounds the span of a single eth_getLogs window.
// It must stay at or below the smallest provider limit we expect to meet.
const MaxBlockRange uint64 = 50000

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

// WindowIterator lazily yields the windows covering [start, latest].
// Window ends are aligned to multiples of span: a window is
// [from, min((from/span+1)*span, latest)] and the next starts at to+1.
// A window never holds more than span+1 blocks; a zero span yields single blocks.
type WindowIterator struct {
	next   uint64
	latest uint64
	span   uint64
	done   bool
}

// Windows returns an iterator over [start, latest]. It yields nothing when start > latest.
func Windows(start, latest, span uint64) *WindowIterator {
	return &WindowIterator{
		next:   start,
		latest: latest,
		span:   span,
		done:   start > latest,
	}
}

// Next returns the next window, or false once the range is exhausted.
func (it *WindowIterator) Next() (BlockRange, bool) {
	if it.done {
		return BlockRange{}, false
	}

	from := it.next
	to := it.latest
	if it.span == 0 {
		to = from
	} else if boundary := from - from%it.span + it.span; boundary > from && boundary < it.latest {
		to = boundary
	}

	if to == it.latest {
		it.done = true
	} else {
		it.next = to + 1
	}
	return BlockRange{From: from, To: to}, true
}

// All drains the iterator.
func (it *WindowIterator) All() []BlockRange {
	ranges := make([]BlockRange, 0)
	for {
		r, ok := it.Next()
		if !ok {
			return ranges
		}
		ranges = append(ranges, r)
	}
}
