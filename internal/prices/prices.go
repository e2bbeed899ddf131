// Package prices reads and writes historical price series.
package prices

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cleared-dev/networth/internal/model"
)

// Parser converts a price CSV into ascending PricePoints.
type Parser interface {
	Parse(r io.Reader) ([]model.PricePoint, error)
	Format() string
}

// Registry maps price file formats ("generic", "yahoo", ...) to the parser
// that reads them. Format names are case-insensitive.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a Registry with no formats.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register makes p available under p.Format(). Registering a format twice
// panics.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get looks up the parser for a price file format. It returns nil when no
// parser reads that format.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists the registered format names in sorted order.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry knows the generic date,price layout and Yahoo Finance
// history exports.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&GenericParser{})
	r.Register(&YahooParser{})
	return r
}

// ReadFile parses the file at path with the named format.
func (r *Registry) ReadFile(path, format string) ([]model.PricePoint, error) {
	p := r.Get(format)
	if p == nil {
		return nil, fmt.Errorf("unknown price format %q", format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening prices: %w", err)
	}
	defer f.Close()

	points, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return points, nil
}
