package trie

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"unicode/utf16"
)

// ErrMalformed is returned for blobs whose length is not a whole number
// of 10-byte records, or which reference offsets past the end.
var ErrMalformed = errors.New("trie: malformed dictionary blob")

// Reader traverses a serialized trie blob in place, without building
// live node objects. It holds a reference to the caller's byte slice;
// the slice must not be mutated while the Reader is in use.
type Reader struct {
	data []byte
}

// NewReader wraps a serialized trie blob. The blob must contain at least
// the root record and a whole number of records.
func NewReader(data []byte) (*Reader, error) {
	if len(data) < NodeSize || len(data)%NodeSize != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrMalformed, len(data))
	}
	return &Reader{data: data}, nil
}

// record field accessors, by byte offset into the blob.

func (r *Reader) charAt(off int) uint16 {
	return binary.BigEndian.Uint16(r.data[off : off+2])
}

func (r *Reader) freqAt(off int) uint8 {
	return r.data[off+2]
}

func (r *Reader) childAt(off int) int {
	return int(r.data[off+3])<<16 | int(r.data[off+4])<<8 | int(r.data[off+5])
}

func (r *Reader) siblingAt(off int) int {
	return int(r.data[off+6])<<16 | int(r.data[off+7])<<8 | int(r.data[off+8])
}

func (r *Reader) valid(off int) bool {
	return off > 0 && off+NodeSize <= len(r.data)
}

// descend follows the word's UTF-16 code units from the root and returns
// the offset of the final node, or -1 if the word's path is absent.
func (r *Reader) descend(word string) int {
	off := 0
	for _, cu := range utf16.Encode([]rune(word)) {
		child := r.childAt(off)
		for {
			if !r.valid(child) {
				return -1
			}
			if r.charAt(child) == cu {
				break
			}
			child = r.siblingAt(child)
		}
		off = child
	}
	return off
}

// Lookup returns the stored frequency of a word. A frequency of zero
// means the word's characters exist only as a prefix of other words, so
// ok is false in that case as well.
func (r *Reader) Lookup(word string) (uint8, bool) {
	if word == "" {
		return 0, false
	}
	off := r.descend(word)
	if off <= 0 {
		return 0, false
	}
	freq := r.freqAt(off)
	return freq, freq > 0
}

// Contains reports whether the word is stored as a complete word.
func (r *Reader) Contains(word string) bool {
	_, ok := r.Lookup(word)
	return ok
}

// Word is a completion candidate.
type Word struct {
	Text string
	Freq uint8
}

// Complete returns up to limit words starting with the given prefix,
// highest frequency first. Ties keep lexicographic order so results are
// stable. A limit <= 0 returns all matches.
func (r *Reader) Complete(prefix string, limit int) []Word {
	start := 0
	if prefix != "" {
		start = r.descend(prefix)
		if start < 0 {
			return nil
		}
	}

	var out []Word
	units := utf16.Encode([]rune(prefix))
	r.collect(start, units, &out)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Freq > out[j].Freq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// collect walks the subtree below off, accumulating terminal words.
// path holds the code units from the root to off inclusive.
func (r *Reader) collect(off int, path []uint16, out *[]Word) {
	if off > 0 {
		if freq := r.freqAt(off); freq > 0 {
			*out = append(*out, Word{Text: string(utf16.Decode(path)), Freq: freq})
		}
	}
	for child := r.childAt(off); r.valid(child); child = r.siblingAt(child) {
		r.collect(child, append(path, r.charAt(child)), out)
	}
}

// WordCount scans the blob and counts terminal nodes.
func (r *Reader) WordCount() int {
	count := 0
	for off := NodeSize; off < len(r.data); off += NodeSize {
		if r.freqAt(off) > 0 {
			count++
		}
	}
	return count
}

// NodeCount returns the number of records in the blob, including the root.
func (r *Reader) NodeCount() int {
	return len(r.data) / NodeSize
}
