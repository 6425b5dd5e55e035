package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ChuLiYu/zipsweep/internal/queue"
	"github.com/ChuLiYu/zipsweep/internal/search"
	"github.com/ChuLiYu/zipsweep/pkg/types"
)

// Dictionary replays a line-delimited word list in order.
type Dictionary struct {
	name   string
	path   string
	reader io.Reader
	closer io.Closer
}

// NewDictionary creates a dictionary source backed by the file at path.
// The file is opened by Prepare.
func NewDictionary(path string) *Dictionary {
	return &Dictionary{
		name: path,
		path: path,
	}
}

// NewDictionaryReader creates a dictionary source over an already open reader.
func NewDictionaryReader(name string, r io.Reader) *Dictionary {
	return &Dictionary{
		name:   name,
		reader: r,
	}
}

// Kind implements Source.
func (d *Dictionary) Kind() types.SourceKind {
	return types.SourceDictionary
}

// Name returns the file path or the name given to the reader.
func (d *Dictionary) Name() string {
	return d.name
}

// Prepare opens the backing file. A reader-backed dictionary is always ready.
func (d *Dictionary) Prepare() error {
	if d.reader != nil {
		return nil
	}

	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInputUnavailable, err)
	}
	d.reader = f
	d.closer = f
	return nil
}

// Close releases the backing file if Prepare opened one. Used when the
// search fails before Generate runs.
func (d *Dictionary) Close() error {
	if d.closer == nil {
		return nil
	}
	err := d.closer.Close()
	d.closer = nil
	return err
}

// Generate implements Source.
//
// Each line is stripped of trailing CR, LF and spaces; empty lines are
// skipped and not counted. Lines have no length limit. The discovered total
// grows before each push.
func (d *Dictionary) Generate(q *queue.Bounded[string], st *search.State) error {
	defer q.Close()
	defer d.Close()

	if d.reader == nil {
		if err := d.Prepare(); err != nil {
			return err
		}
	}

	br := bufio.NewReader(d.reader)
	for st.Pending() {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			slog.Error("Dictionary read failed",
				"dictionary", d.name,
				"error", err)
			return fmt.Errorf("%w: reading %s: %v", ErrInputUnavailable, d.name, err)
		}

		if line := strings.TrimRight(raw, "\r\n "); line != "" {
			st.AddDiscovered()
			if !q.Push(line) {
				break
			}
			st.RecordGenerated()
		}

		if err != nil {
			break // EOF
		}
	}

	slog.Debug("Dictionary source finished",
		"dictionary", d.name,
		"generated", st.Generated())
	return nil
}
