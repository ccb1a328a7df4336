package entropy

import (
	"container/heap"
	"sort"

	"github.com/arlobytes/pco/errs"
	"github.com/arlobytes/pco/internal/bitio"
)

// HuffmanTable is the legacy (standalone format version <= 1) entropy coder:
// canonical variable-length prefix codes derived from a per-symbol
// code-length table, per spec §4.5's "variable-length prefix codes stored
// as a canonical code-length table; otherwise equivalent semantics" — it
// sits alongside Table/Encoder/Decoder as the other half of the
// format-version-gated entropy subsection (spec §9's "multiple format
// versions coexist").
type HuffmanTable struct {
	lengths []uint8
	codes   []uint32
}

type huffNode struct {
	weight      uint64
	symbol      int // -1 for internal nodes
	left, right *huffNode
}

type huffHeap []*huffNode

func (h huffHeap) Len() int            { return len(h) }
func (h huffHeap) Less(i, j int) bool  { return h[i].weight < h[j].weight }
func (h huffHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *huffHeap) Push(x interface{}) { *h = append(*h, x.(*huffNode)) }
func (h *huffHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// NewHuffmanTable builds canonical code lengths for len(weights) symbols,
// via a standard Huffman-tree merge over the given weights (zero weights are
// treated as 1, so every symbol still gets a code).
func NewHuffmanTable(weights []uint32) (HuffmanTable, error) {
	n := len(weights)
	if n == 0 {
		return HuffmanTable{}, errs.Invalid(errs.ErrInvalidAnsSizeLog)
	}
	if n == 1 {
		return HuffmanTable{lengths: []uint8{1}, codes: []uint32{0}}, nil
	}

	h := &huffHeap{}
	heap.Init(h)
	for i, w := range weights {
		weight := uint64(w)
		if weight == 0 {
			weight = 1
		}
		heap.Push(h, &huffNode{weight: weight, symbol: i})
	}
	for h.Len() > 1 {
		a := heap.Pop(h).(*huffNode)
		b := heap.Pop(h).(*huffNode)
		heap.Push(h, &huffNode{weight: a.weight + b.weight, symbol: -1, left: a, right: b})
	}
	root := heap.Pop(h).(*huffNode)

	lengths := make([]uint8, n)
	var walk func(node *huffNode, depth int)
	walk = func(node *huffNode, depth int) {
		if node.symbol >= 0 {
			lengths[node.symbol] = uint8(depth)
			return
		}
		walk(node.left, depth+1)
		walk(node.right, depth+1)
	}
	walk(root, 0)

	return HuffmanTable{lengths: lengths, codes: canonicalCodes(lengths)}, nil
}

// canonicalCodes assigns canonical codes given per-symbol lengths: symbols
// are ordered by (length, symbol index), codes are consecutive integers,
// left-shifted by the length delta whenever length increases. This is the
// standard canonical-Huffman assignment, chosen because it lets the decoder
// recover code boundaries from lengths alone (see DecodeHuffmanSymbols)
// rather than needing to ship an explicit tree.
func canonicalCodes(lengths []uint8) []uint32 {
	n := len(lengths)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return lengths[order[i]] < lengths[order[j]] })

	codes := make([]uint32, n)
	var code uint32
	var prevLen uint8
	for _, sym := range order {
		l := lengths[sym]
		if l == 0 {
			continue
		}
		code <<= l - prevLen
		codes[sym] = code
		code++
		prevLen = l
	}

	return codes
}

// Lengths returns each symbol's canonical code length in table order.
func (t HuffmanTable) Lengths() []uint8 { return t.lengths }

// EncodeHuffmanSymbols writes each symbol's canonical code, most-significant
// bit first, into w.
func EncodeHuffmanSymbols(w *bitio.Writer, t HuffmanTable, symbols []int) error {
	for _, s := range symbols {
		l := t.lengths[s]
		code := t.codes[s]
		for b := int(l) - 1; b >= 0; b-- {
			bit := (code >> uint(b)) & 1
			if err := w.WriteBits(uint64(bit), 1); err != nil {
				return err
			}
		}
	}

	return nil
}

// DecodeHuffmanSymbols reads n symbols back out of r, walking one bit at a
// time against the canonical length assignment: for each code length l, the
// decoder tracks the first canonical code of that length (firstCode[l]) and
// how many symbols share it, recovering the tree purely from Lengths()
// without shipping an explicit tree on the wire.
func DecodeHuffmanSymbols(r *bitio.Reader, t HuffmanTable, n int) ([]int, error) {
	maxLen := 0
	for _, l := range t.lengths {
		if int(l) > maxLen {
			maxLen = int(l)
		}
	}

	countAtLen := make([]int, maxLen+1)
	for _, l := range t.lengths {
		if l > 0 {
			countAtLen[l]++
		}
	}

	order := make([]int, 0, len(t.lengths))
	for i := range t.lengths {
		order = append(order, i)
	}
	sort.SliceStable(order, func(i, j int) bool { return t.lengths[order[i]] < t.lengths[order[j]] })

	symbolsByLen := make([][]int, maxLen+1)
	for _, sym := range order {
		l := t.lengths[sym]
		if l == 0 {
			continue
		}
		symbolsByLen[l] = append(symbolsByLen[l], sym)
	}

	firstCode := make([]int64, maxLen+1)
	var code int64
	for l := 1; l <= maxLen; l++ {
		firstCode[l] = code
		code = (code + int64(countAtLen[l])) << 1
	}

	out := make([]int, n)
	for i := 0; i < n; i++ {
		var cur int64
		length := 0
		for {
			bit, err := r.ReadBits(1)
			if err != nil {
				return nil, err
			}
			cur = (cur << 1) | int64(bit)
			length++
			if length > maxLen {
				return nil, errs.Corrupt(errs.ErrInvalidAnsSizeLog)
			}
			if countAtLen[length] > 0 {
				idx := cur - firstCode[length]
				if idx >= 0 && idx < int64(countAtLen[length]) {
					out[i] = symbolsByLen[length][idx]
					break
				}
			}
		}
	}

	return out, nil
}
