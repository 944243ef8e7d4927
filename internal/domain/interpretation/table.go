package interpretation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/phrazzld/arcana/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// ErrIncompleteTable is returned when the general domain is missing an entry.
// General is the fallback for every other domain, so it must be complete.
var ErrIncompleteTable = errors.New("interpretation table is incomplete")

// Framing identifies the combined-narrative family chosen for a selection.
type Framing string

// Combined-narrative framings, in precedence order.
const (
	FramingTransition        Framing = "transition"
	FramingSignificantChange Framing = "significant_change"
	FramingBlockedEnergy     Framing = "blocked_energy"
	FramingPositiveFlow      Framing = "positive_flow"
)

var framings = []Framing{
	FramingTransition, FramingSignificantChange, FramingBlockedEnergy, FramingPositiveFlow,
}

// Orientation-keyed statements for one position.
type orientationText struct {
	Upright  string `yaml:"upright"`
	Reversed string `yaml:"reversed"`
}

func (o orientationText) pick(reversed bool) string {
	if reversed {
		return o.Reversed
	}
	return o.Upright
}

// DomainTemplates holds the domain-specific entries of the table.
type DomainTemplates struct {
	Opener     string                              `yaml:"opener"`
	Conclusion string                              `yaml:"conclusion"`
	Positions  map[domain.Position]orientationText `yaml:"positions"`
	Framings   map[Framing]string                  `yaml:"framings"`
}

// Table is the full template table, keyed by position, orientation and
// domain. It is loaded once and never mutated.
type Table struct {
	QuestionSummary string                              `yaml:"question_summary"`
	Positions       map[domain.Position]orientationText `yaml:"positions"`
	Domains         map[domain.Domain]DomainTemplates   `yaml:"domains"`
}

// LoadTable decodes a YAML template table and validates it against spread.
func LoadTable(r io.Reader, spread domain.Spread) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode interpretation table: %w", err)
	}
	if err := t.Validate(spread); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that every generic entry and every general-domain entry
// needed for spread is present, and that no unknown domain is defined.
func (t *Table) Validate(spread domain.Spread) error {
	if t.QuestionSummary == "" {
		return fmt.Errorf("%w: question_summary", ErrIncompleteTable)
	}
	general, ok := t.Domains[domain.DomainGeneral]
	if !ok {
		return fmt.Errorf("%w: domain %s", ErrIncompleteTable, domain.DomainGeneral)
	}
	if general.Opener == "" || general.Conclusion == "" {
		return fmt.Errorf("%w: general opener/conclusion", ErrIncompleteTable)
	}
	for _, p := range spread.Positions {
		if o := t.Positions[p]; o.Upright == "" || o.Reversed == "" {
			return fmt.Errorf("%w: position %s", ErrIncompleteTable, p)
		}
		if o := general.Positions[p]; o.Upright == "" || o.Reversed == "" {
			return fmt.Errorf("%w: general position %s", ErrIncompleteTable, p)
		}
	}
	for _, f := range framings {
		if general.Framings[f] == "" {
			return fmt.Errorf("%w: general framing %s", ErrIncompleteTable, f)
		}
	}
	for d := range t.Domains {
		if !d.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidDomain, d)
		}
	}
	return nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// DefaultTable returns the embedded template table for the three-card spread.
func DefaultTable() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = LoadTable(bytes.NewReader(defaultTemplates), domain.ThreeCardSpread)
	})
	return defaultTable, defaultErr
}

// The lookups below fall back to the general domain per entry and never
// return an empty string for a validated table.

func (t *Table) positionText(d domain.Domain, p domain.Position, reversed bool) string {
	if s := t.Domains[d].Positions[p].pick(reversed); s != "" {
		return s
	}
	return t.Domains[domain.DomainGeneral].Positions[p].pick(reversed)
}

func (t *Table) framingText(d domain.Domain, f Framing) string {
	if s := t.Domains[d].Framings[f]; s != "" {
		return s
	}
	return t.Domains[domain.DomainGeneral].Framings[f]
}

func (t *Table) conclusion(d domain.Domain) string {
	if s := t.Domains[d].Conclusion; s != "" {
		return s
	}
	return t.Domains[domain.DomainGeneral].Conclusion
}

func (t *Table) opener(d domain.Domain) string {
	if s := t.Domains[d].Opener; s != "" {
		return s
	}
	return t.Domains[domain.DomainGeneral].Opener
}
