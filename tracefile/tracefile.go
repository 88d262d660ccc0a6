// Package tracefile reads and writes memory access traces.
//
// A trace holds one access per line: an operation letter, R or W, followed by
// a hexadecimal address with an optional 0x prefix.
//
//	R 0x7fff5a8c
//	W 0x7fff5a90
//
// Blank lines and lines starting with # are ignored.
package tracefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/cache"
)

// Record is one access of a trace.
type Record struct {
	Op      cache.Op
	Address uint64
}

// A ParseError reports a line that is not a valid access.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d %q: %s", e.Line, e.Text, e.Reason)
}

// A Reader returns the records of a trace one at a time, in order.
type Reader struct {
	scanner   *bufio.Scanner
	line      int
	bytesRead uint64
}

// NewReader creates a Reader that reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
	}
}

// Next returns the next record. It returns io.EOF after the last record.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		text := r.scanner.Text()
		r.line++
		r.bytesRead += uint64(len(text)) + 1

		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		rec, reason := parseRecord(trimmed)
		if reason != "" {
			return Record{}, &ParseError{Line: r.line, Text: text, Reason: reason}
		}

		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("reading trace: %w", err)
	}

	return Record{}, io.EOF
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// BytesRead returns the number of bytes consumed so far.
func (r *Reader) BytesRead() uint64 {
	return r.bytesRead
}

func parseRecord(text string) (Record, string) {
	var rec Record

	switch text[0] {
	case 'R', 'r':
		rec.Op = cache.OpRead
	case 'W', 'w':
		rec.Op = cache.OpWrite
	default:
		return rec, "operation must be R or W"
	}

	addr := strings.TrimSpace(text[1:])
	addr = strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if addr == "" {
		return rec, "missing address"
	}

	value, err := strconv.ParseUint(addr, 16, 64)
	if err != nil {
		return rec, "address is not a 64-bit hexadecimal number"
	}

	rec.Address = value

	return rec, ""
}

// A Writer writes records in the format Reader understands.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer that writes to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends a record.
func (w *Writer) Write(rec Record) error {
	_, err := fmt.Fprintf(w.w, "%s 0x%x\n", rec.Op, rec.Address)
	return err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
