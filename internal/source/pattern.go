package source

import (
	"fmt"
	"log/slog"
	"math/bits"

	"github.com/ChuLiYu/zipsweep/internal/queue"
	"github.com/ChuLiYu/zipsweep/internal/search"
	"github.com/ChuLiYu/zipsweep/pkg/types"
)

// Wildcard is the sentinel that introduces a two-character class token.
const Wildcard = '?'

// Character classes addressable as ?d ?l ?u ?s ?a.
const (
	Digits   = "0123456789"
	Lowers   = "abcdefghijklmnopqrstuvwxyz"
	Uppers   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Specials = "!@#$%^&*()_+-=[]{}|;:',.<>?/~`"
	AlphaNum = Digits + Lowers + Uppers
)

var classes = map[byte]string{
	'd': Digits,
	'l': Lowers,
	'u': Uppers,
	's': Specials,
	'a': AlphaNum,
}

// Class returns the character set bound to a wildcard class letter.
func Class(letter byte) (string, bool) {
	chars, ok := classes[letter]
	return chars, ok
}

// tokenAt resolves the template position pos into the characters it can
// produce and the number of template bytes it consumes. A sentinel that is
// last in the template, or followed by an unknown class letter, is a literal.
func tokenAt(template string, pos int) (chars string, width int) {
	if template[pos] == Wildcard && pos+1 < len(template) {
		if set, ok := classes[template[pos+1]]; ok {
			return set, 2
		}
	}
	return template[pos : pos+1], 1
}

// Size returns the number of candidates template expands to. It returns
// ErrSpaceTooLarge if the product overflows a uint64.
func Size(template string) (uint64, error) {
	total := uint64(1)
	for pos := 0; pos < len(template); {
		chars, width := tokenAt(template, pos)
		pos += width
		if width == 1 {
			continue
		}

		hi, lo := bits.Mul64(total, uint64(len(chars)))
		if hi != 0 {
			return 0, fmt.Errorf("%w: %q overflows", ErrSpaceTooLarge, template)
		}
		total = lo
	}
	return total, nil
}

// patternState is a pending expansion: the prefix built so far and the next
// template position to consume.
type patternState struct {
	partial string
	pos     int
}

// Pattern expands a template into every candidate it describes.
type Pattern struct {
	template string
	maxSpace uint64
	size     uint64
}

// NewPattern creates a pattern source. maxSpace == 0 disables the upper bound
// (overflow is still rejected).
func NewPattern(template string, maxSpace uint64) *Pattern {
	return &Pattern{
		template: template,
		maxSpace: maxSpace,
	}
}

// Kind implements Source.
func (p *Pattern) Kind() types.SourceKind {
	return types.SourcePattern
}

// Template returns the template being expanded.
func (p *Pattern) Template() string {
	return p.template
}

// Prepare computes the exact space size and rejects spaces that cannot be enumerated.
func (p *Pattern) Prepare() error {
	if p.template == "" {
		return ErrEmptyTemplate
	}

	size, err := Size(p.template)
	if err != nil {
		return err
	}
	if p.maxSpace > 0 && size > p.maxSpace {
		return fmt.Errorf("%w: %d candidates exceeds maximum of %d", ErrSpaceTooLarge, size, p.maxSpace)
	}

	p.size = size
	return nil
}

// Size returns the space size computed by Prepare.
func (p *Pattern) Size() uint64 {
	return p.size
}

// Generate implements Source.
//
// Expansion is depth-first: the work list is a stack of patternState
// records, and children are pushed in reverse class order so candidates come
// out in class order ("00", "01", ...).
// The stack never holds more than depth*(largest class) records.
func (p *Pattern) Generate(q *queue.Bounded[string], st *search.State) error {
	defer q.Close()

	if p.size == 0 {
		if err := p.Prepare(); err != nil {
			return err
		}
	}
	st.SetTotal(p.size)

	work := []patternState{{partial: "", pos: 0}}
	for len(work) > 0 && st.Pending() {
		cur := work[len(work)-1]
		work = work[:len(work)-1]

		if cur.pos >= len(p.template) {
			if !q.Push(cur.partial) {
				break
			}
			st.RecordGenerated()
			continue
		}

		chars, width := tokenAt(p.template, cur.pos)
		for i := len(chars) - 1; i >= 0; i-- {
			work = append(work, patternState{
				partial: cur.partial + chars[i:i+1],
				pos:     cur.pos + width,
			})
		}
	}

	slog.Debug("Pattern source finished",
		"template", p.template,
		"generated", st.Generated())
	return nil
}
