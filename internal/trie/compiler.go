// Package trie builds and serializes compact binary trie dictionaries.
//
// The serialized format is a sequence of fixed 10-byte records in
// breadth-first order, root first:
//
//	offset 0: character (big-endian UTF-16 code unit)
//	offset 2: frequency (unsigned byte, 0 = not a terminal word)
//	offset 3: first-child offset (big-endian uint24, 0 = none)
//	offset 6: next-sibling offset (big-endian uint24, 0 = none)
//	offset 9: reserved, always 0
//
// There is no header or version field; readers must know the format out
// of band. Offset 0 is the root and doubles as the "none" sentinel since
// the root is never referenced as a child or sibling.
package trie

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"unicode/utf16"
)

const (
	// NodeSize is the size of one serialized trie node in bytes.
	NodeSize = 10

	// MaxOffset is the largest node offset representable in the 3-byte
	// child/sibling fields.
	MaxOffset = 0xFFFFFF
)

// ErrTrieTooLarge is returned when the serialized trie would exceed the
// 3-byte offset ceiling. The compiler fails before producing any output;
// it never truncates.
var ErrTrieTooLarge = errors.New("trie: serialized size exceeds 16MB offset limit")

// node is one entry in the compiler's arena. Children and siblings are
// arena indices rather than pointers; index 0 is the root and doubles as
// the "none" sentinel, since the root never appears as anyone's child.
type node struct {
	char       uint16
	freq       uint8
	children   map[uint16]int32
	firstChild int32
	nextSib    int32
	offset     int32
}

// builder accumulates words into an arena-backed prefix tree.
type builder struct {
	nodes []node
}

func newBuilder() *builder {
	b := &builder{nodes: make([]node, 1, 256)}
	b.nodes[0].char = '^' // sentinel root, never part of any word
	return b
}

// insert adds one word, character by character, as UTF-16 code units.
// The terminal node receives the clamped frequency; re-inserting a word
// overwrites the earlier frequency (last write wins).
func (b *builder) insert(word string, freq uint8) {
	cur := int32(0)
	for _, cu := range utf16.Encode([]rune(word)) {
		next, ok := b.nodes[cur].children[cu]
		if !ok {
			b.nodes = append(b.nodes, node{char: cu})
			next = int32(len(b.nodes) - 1)
			if b.nodes[cur].children == nil {
				b.nodes[cur].children = make(map[uint16]int32)
			}
			b.nodes[cur].children[cu] = next
		}
		cur = next
	}
	if cur != 0 {
		b.nodes[cur].freq = freq
	}
}

// flatten assigns byte offsets in breadth-first order and links each
// node's children into an ascending sibling chain. Child ordering is a
// pure function of character value, so output is byte-identical for the
// same input map regardless of insertion order.
func (b *builder) flatten() ([]int32, error) {
	order := make([]int32, 0, len(b.nodes))
	queue := []int32{0}
	offset := int32(0)

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]

		if offset > MaxOffset {
			return nil, ErrTrieTooLarge
		}
		b.nodes[idx].offset = offset
		order = append(order, idx)
		offset += NodeSize

		kids := b.nodes[idx].children
		if len(kids) == 0 {
			continue
		}
		chars := make([]uint16, 0, len(kids))
		for c := range kids {
			chars = append(chars, c)
		}
		sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })

		b.nodes[idx].firstChild = kids[chars[0]]
		for i := 0; i < len(chars)-1; i++ {
			b.nodes[kids[chars[i]]].nextSib = kids[chars[i+1]]
		}
		for _, c := range chars {
			queue = append(queue, kids[c])
		}
	}
	return order, nil
}

// ClampFrequency clamps an arbitrary integer frequency into the single
// byte the format stores. Out-of-range values are not an error.
func ClampFrequency(freq int) uint8 {
	if freq < 0 {
		return 0
	}
	if freq > 255 {
		return 255
	}
	return uint8(freq)
}

// Compile builds a prefix tree from the word/frequency map and returns
// the serialized blob. Frequencies are clamped to [0,255]; duplicate
// words keep the last value the map held (maps have one value per key,
// so this matters only for callers merging sources before the call).
// An empty map compiles to a valid single-node (root only) blob. The
// input map is never mutated.
//
// Compilation fails with ErrTrieTooLarge if any node offset would exceed
// MaxOffset; nothing is returned in that case.
func Compile(words map[string]int) ([]byte, error) {
	b := newBuilder()

	// Insert in sorted order. Not required for output determinism (the
	// sibling chains are re-sorted during flatten) but keeps arena
	// indices reproducible, which makes failures easier to compare.
	sorted := make([]string, 0, len(words))
	for w := range words {
		if w == "" {
			continue // the root is never a terminal word
		}
		sorted = append(sorted, w)
	}
	sort.Strings(sorted)
	for _, w := range sorted {
		b.insert(w, ClampFrequency(words[w]))
	}

	order, err := b.flatten()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(order)*NodeSize)
	for _, idx := range order {
		n := &b.nodes[idx]
		var rec [NodeSize]byte
		binary.BigEndian.PutUint16(rec[0:2], n.char)
		rec[2] = n.freq
		if err := putUint24(rec[3:6], b.nodes[n.firstChild].offset, idx, n.firstChild); err != nil {
			return nil, err
		}
		if err := putUint24(rec[6:9], b.nodes[n.nextSib].offset, idx, n.nextSib); err != nil {
			return nil, err
		}
		// rec[9] stays zero (reserved)
		out = append(out, rec[:]...)
	}
	return out, nil
}

// putUint24 writes a 3-byte big-endian offset. A target index of 0 means
// "no child / no sibling" and is written as offset 0.
func putUint24(dst []byte, offset int32, from, target int32) error {
	if target == 0 {
		offset = 0
	}
	if offset < 0 || offset > MaxOffset {
		return fmt.Errorf("trie: node %d references offset %d outside 3-byte range: %w", from, offset, ErrTrieTooLarge)
	}
	dst[0] = byte(offset >> 16)
	dst[1] = byte(offset >> 8)
	dst[2] = byte(offset)
	return nil
}
