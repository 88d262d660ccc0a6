// Package report formats the result of a simulation.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/tracing"
)

// Format selects how a report is written.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// A Report is the final state of a simulated cache.
type Report struct {
	Geometry    cache.Geometry
	Replacement cache.ReplacementStrategy
	Write       cache.WriteStrategy
	Stats       cache.Statistics
	Flushed     int
	HottestSets []tracing.SetCount
}

// FromCache captures the configuration and counters of c.
func FromCache(c *cache.Cache) Report {
	return Report{
		Geometry:    c.Geometry(),
		Replacement: c.ReplacementStrategy(),
		Write:       c.WriteStrategy(),
		Stats:       c.Stats(),
	}
}

// Write writes r in the given format.
func Write(w io.Writer, r Report, format Format) error {
	switch format {
	case FormatText:
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func replacementName(s cache.ReplacementStrategy) string {
	if s == cache.LRU {
		return "LRU"
	}

	return "FIFO"
}

func writeName(s cache.WriteStrategy) string {
	if s == cache.WriteThrough {
		return "Write-Through"
	}

	return " Write-Back"
}

// WriteText writes the six line summary of r.
func WriteText(w io.Writer, r Report) error {
	_, err := fmt.Fprintf(w,
		"The current cache is %d bytes with %d associativity with %d sets\n"+
			"Current replacement policy is %s\n"+
			"Current write back policy is %s\n"+
			"The total number of misses: %d\n"+
			"The total number of hits: %d\n"+
			"The total number of accesses: %d\n",
		r.Geometry.ByteSize, r.Geometry.WayAssociativity, r.Geometry.NumSets(),
		replacementName(r.Replacement),
		writeName(r.Write),
		r.Stats.Misses,
		r.Stats.Hits(),
		r.Stats.Accesses,
	)

	return err
}

type jsonReport struct {
	CacheSize     uint64             `json:"cache_size"`
	Associativity int                `json:"associativity"`
	BlockSize     uint64             `json:"block_size"`
	NumSets       int                `json:"num_sets"`
	Replacement   string             `json:"replacement"`
	WritePolicy   string             `json:"write_policy"`
	Stats         cache.Statistics   `json:"stats"`
	Hits          uint64             `json:"hits"`
	MissRatio     *float64           `json:"miss_ratio"`
	Flushed       int                `json:"flushed"`
	HottestSets   []tracing.SetCount `json:"hottest_sets"`
}

// WriteJSON writes r as an indented JSON document. The miss ratio is null
// when nothing was accessed.
func WriteJSON(w io.Writer, r Report) error {
	rsp := jsonReport{
		CacheSize:     r.Geometry.ByteSize,
		Associativity: r.Geometry.WayAssociativity,
		BlockSize:     r.Geometry.BlockSize,
		NumSets:       r.Geometry.NumSets(),
		Replacement:   r.Replacement.String(),
		WritePolicy:   r.Write.String(),
		Stats:         r.Stats,
		Hits:          r.Stats.Hits(),
		Flushed:       r.Flushed,
		HottestSets:   r.HottestSets,
	}

	if rsp.HottestSets == nil {
		rsp.HottestSets = []tracing.SetCount{}
	}

	if ratio, err := r.Stats.MissRatio(); err == nil {
		rsp.MissRatio = &ratio
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(rsp)
}
