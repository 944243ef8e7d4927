// Package interpretation turns a finalized card selection into a structured
// narrative.
//
// Interpret is a pure function of its inputs: the same selection, domain and
// question always produce the same Interpretation. Prose comes from a
// template table keyed by position, orientation and domain, with the general
// domain as the fallback for any missing entry.
package interpretation

import (
	"fmt"
	"strings"

	"github.com/phrazzld/arcana/internal/domain"
)

// Engine synthesizes interpretations from a template table.
type Engine struct {
	table  *Table
	spread domain.Spread
}

// NewEngine creates an engine over table for spread. The table must already
// be validated for spread.
func NewEngine(table *Table, spread domain.Spread) *Engine {
	return &Engine{table: table, spread: spread}
}

// NewDefaultEngine creates an engine over the embedded table for the
// three-card spread.
func NewDefaultEngine() (*Engine, error) {
	t, err := DefaultTable()
	if err != nil {
		return nil, err
	}
	return NewEngine(t, domain.ThreeCardSpread), nil
}

// Interpret produces the interpretation of selection for d. A non-empty
// question is quoted verbatim in the summary. The selection must fill the
// engine's spread in order.
func (e *Engine) Interpret(selection []domain.SelectedCard, d domain.Domain, question string) (domain.Interpretation, error) {
	if !d.Valid() {
		return domain.Interpretation{}, fmt.Errorf("%w: %q", domain.ErrInvalidDomain, d)
	}
	if err := domain.ValidateSelection(selection, e.spread); err != nil {
		return domain.Interpretation{}, err
	}

	sections := make([]domain.Section, len(selection))
	for i, sc := range selection {
		sections[i] = domain.Section{
			Title:   SectionTitle(sc),
			Content: e.sectionContent(sc, d),
		}
	}

	return domain.Interpretation{
		Summary:    e.summary(d, question),
		Sections:   sections,
		Combined:   render(e.table.framingText(d, ChooseFraming(selection)), placeholders{domain: d}),
		Conclusion: render(e.table.conclusion(d), placeholders{domain: d}),
	}, nil
}

// SectionTitle formats "{position}: {card name}" with a " (Reversed)" suffix
// for reversed cards.
func SectionTitle(sc domain.SelectedCard) string {
	title := string(sc.Position) + ": " + sc.Name
	if sc.Reversed {
		title += " (Reversed)"
	}
	return title
}

// ChooseFraming picks the combined-narrative framing. Precedence: a Major
// Arcana card together with a reversed card, then any Major Arcana card, then
// any reversed card, otherwise positive flow.
func ChooseFraming(selection []domain.SelectedCard) Framing {
	var hasMajor, hasReversed bool
	for _, sc := range selection {
		hasMajor = hasMajor || sc.IsMajor()
		hasReversed = hasReversed || sc.Reversed
	}
	switch {
	case hasMajor && hasReversed:
		return FramingTransition
	case hasMajor:
		return FramingSignificantChange
	case hasReversed:
		return FramingBlockedEnergy
	default:
		return FramingPositiveFlow
	}
}

func (e *Engine) sectionContent(sc domain.SelectedCard, d domain.Domain) string {
	ph := placeholders{
		card:     sc.Name,
		meaning:  sc.Meaning(),
		position: string(sc.Position),
		domain:   d,
	}
	generic := render(e.table.Positions[sc.Position].pick(sc.Reversed), ph)
	specific := render(e.table.positionText(d, sc.Position, sc.Reversed), ph)
	return generic + " " + specific
}

func (e *Engine) summary(d domain.Domain, question string) string {
	opener := render(e.table.opener(d), placeholders{domain: d})
	if strings.TrimSpace(question) == "" {
		return opener
	}
	return render(e.table.QuestionSummary, placeholders{domain: d, question: question, opener: opener})
}

type placeholders struct {
	card     string
	meaning  string
	position string
	domain   domain.Domain
	question string
	opener   string
}

// render substitutes placeholders in a single pass, so text inserted from a
// question is never itself expanded.
func render(tmpl string, ph placeholders) string {
	return strings.NewReplacer(
		"{{card}}", ph.card,
		"{{meaning}}", ph.meaning,
		"{{position}}", ph.position,
		"{{domain}}", string(ph.domain),
		"{{question}}", ph.question,
		"{{opener}}", ph.opener,
	).Replace(tmpl)
}

// Reconcile keeps an externally authored interpretation but fills what it
// lacks from local. The result always has one section per selected card, in
// selection order, titled with SectionTitle. Remote sections are matched to
// cards by title or by the position named before the first colon; when no
// remote title names a card, a remote list of the right length is taken in
// the order given. Cards left without remote content get the local section.
func Reconcile(remote, local domain.Interpretation, selection []domain.SelectedCard) domain.Interpretation {
	out := remote.Clone()
	out.Sections = reconcileSections(remote.Sections, local.Sections, selection)
	if strings.TrimSpace(out.Summary) == "" {
		out.Summary = local.Summary
	}
	if strings.TrimSpace(out.Combined) == "" {
		out.Combined = local.Combined
	}
	if strings.TrimSpace(out.Conclusion) == "" {
		out.Conclusion = local.Conclusion
	}
	return out
}

func reconcileSections(remote, local []domain.Section, selection []domain.SelectedCard) []domain.Section {
	out := make([]domain.Section, len(selection))
	used := make([]bool, len(remote))
	matched := make([]bool, len(selection))
	anyMatched := false

	for i, sc := range selection {
		out[i].Title = SectionTitle(sc)
		if j := matchSection(remote, used, sc); j >= 0 {
			used[j] = true
			matched[i] = true
			anyMatched = true
			out[i].Content = remote[j].Content
		}
	}

	if !anyMatched && len(remote) == len(selection) {
		for i := range selection {
			if strings.TrimSpace(remote[i].Content) != "" {
				out[i].Content = remote[i].Content
				matched[i] = true
			}
		}
	}

	for i := range out {
		if matched[i] && strings.TrimSpace(out[i].Content) != "" {
			continue
		}
		if i < len(local) {
			out[i].Content = local[i].Content
		}
	}
	return out
}

// matchSection returns the index of the first unused remote section whose
// title is sc's full title or names sc's position, or -1.
func matchSection(remote []domain.Section, used []bool, sc domain.SelectedCard) int {
	full := SectionTitle(sc)
	for j, s := range remote {
		if !used[j] && strings.EqualFold(strings.TrimSpace(s.Title), full) {
			return j
		}
	}
	for j, s := range remote {
		if used[j] {
			continue
		}
		position, _, _ := strings.Cut(s.Title, ":")
		if strings.EqualFold(strings.TrimSpace(position), string(sc.Position)) {
			return j
		}
	}
	return -1
}
