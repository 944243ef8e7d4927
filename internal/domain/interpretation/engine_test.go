package interpretation

import (
	"strings"
	"testing"

	"github.com/phrazzld/arcana/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(id, name string, arcana domain.Arcana, suit domain.Suit) domain.Card {
	return domain.Card{
		ID:              id,
		Name:            name,
		Arcana:          arcana,
		Suit:            suit,
		UprightMeaning:  name + " upright meaning",
		ReversedMeaning: name + " reversed meaning",
	}
}

var (
	fool       = card("major-00", "The Fool", domain.ArcanaMajor, "")
	tower      = card("major-16", "The Tower", domain.ArcanaMajor, "")
	twoCups    = card("cups-02", "Two of Cups", domain.ArcanaMinor, domain.SuitCups)
	aceWands   = card("wands-01", "Ace of Wands", domain.ArcanaMinor, domain.SuitWands)
	tenSwords  = card("swords-10", "Ten of Swords", domain.ArcanaMinor, domain.SuitSwords)
	sixPentacl = card("pentacles-06", "Six of Pentacles", domain.ArcanaMinor, domain.SuitPentacles)
)

type pick struct {
	card     domain.Card
	reversed bool
}

func selectionOf(picks ...pick) []domain.SelectedCard {
	out := make([]domain.SelectedCard, len(picks))
	for i, p := range picks {
		out[i] = domain.SelectedCard{
			DrawnCard:     domain.DrawnCard{Card: p.card, Reversed: p.reversed},
			Position:      domain.ThreeCardSpread.Positions[i],
			PositionIndex: i,
		}
	}
	return out
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewDefaultEngine()
	require.NoError(t, err)
	return e
}

func TestDefaultTableIsComplete(t *testing.T) {
	t.Parallel()
	table, err := DefaultTable()
	require.NoError(t, err)

	for _, d := range domain.Domains {
		for _, p := range domain.ThreeCardSpread.Positions {
			for _, rev := range []bool{false, true} {
				assert.NotEmpty(t, table.positionText(d, p, rev), "%s/%s/%v", d, p, rev)
			}
		}
		for _, f := range framings {
			assert.NotEmpty(t, table.framingText(d, f), "%s/%s", d, f)
		}
		assert.NotEmpty(t, table.conclusion(d))
		assert.NotEmpty(t, table.opener(d))
	}
}

func TestInterpret_Sections(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	sel := selectionOf(pick{fool, false}, pick{twoCups, true}, pick{aceWands, false})

	out, err := e.Interpret(sel, domain.DomainLove, "")
	require.NoError(t, err)
	require.Len(t, out.Sections, len(sel))

	assert.Equal(t, "Self: The Fool", out.Sections[0].Title)
	assert.Equal(t, "Circumstance: Two of Cups (Reversed)", out.Sections[1].Title)
	assert.Equal(t, "Challenge: Ace of Wands", out.Sections[2].Title)

	table, _ := DefaultTable()
	for i, sc := range sel {
		specific := table.Domains[domain.DomainLove].Positions[sc.Position].pick(sc.Reversed)
		content := out.Sections[i].Content
		assert.Contains(t, content, sc.Meaning())
		assert.True(t, strings.HasSuffix(content, " "+specific), "domain text follows generic text")
		assert.NotContains(t, content, "{{")
		assert.True(t, strings.HasPrefix(content, sc.Name), "generic text comes first")
	}
}

func TestInterpret_Deterministic(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	sel := selectionOf(pick{tower, true}, pick{tenSwords, false}, pick{sixPentacl, true})

	a, err := e.Interpret(sel, domain.DomainCareer, "Should I change jobs?")
	require.NoError(t, err)
	b, err := e.Interpret(sel, domain.DomainCareer, "Should I change jobs?")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestChooseFraming(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		sel  []domain.SelectedCard
		want Framing
	}{
		{
			name: "major and reversed wins over upright minors",
			sel:  selectionOf(pick{fool, false}, pick{twoCups, true}, pick{aceWands, false}),
			want: FramingTransition,
		},
		{
			name: "reversed major alone is a transition",
			sel:  selectionOf(pick{aceWands, false}, pick{tower, true}, pick{twoCups, false}),
			want: FramingTransition,
		},
		{
			name: "upright major",
			sel:  selectionOf(pick{fool, false}, pick{twoCups, false}, pick{aceWands, false}),
			want: FramingSignificantChange,
		},
		{
			name: "reversed minor only",
			sel:  selectionOf(pick{tenSwords, true}, pick{twoCups, false}, pick{aceWands, false}),
			want: FramingBlockedEnergy,
		},
		{
			name: "all upright minors",
			sel:  selectionOf(pick{tenSwords, false}, pick{twoCups, false}, pick{aceWands, false}),
			want: FramingPositiveFlow,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ChooseFraming(tc.sel))
		})
	}
}

func TestInterpret_CombinedUsesDomainFraming(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	table, _ := DefaultTable()
	sel := selectionOf(pick{fool, false}, pick{twoCups, true}, pick{aceWands, false})

	out, err := e.Interpret(sel, domain.DomainFinance, "")
	require.NoError(t, err)
	assert.Equal(t, table.Domains[domain.DomainFinance].Framings[FramingTransition], out.Combined)
}

func TestInterpret_FallsBackToGeneral(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	table, _ := DefaultTable()

	// The spiritual family defines no Challenge entries and no positive flow
	// framing.
	require.Empty(t, table.Domains[domain.DomainSpiritual].Positions[domain.PositionChallenge].Upright)
	require.Empty(t, table.Domains[domain.DomainSpiritual].Framings[FramingPositiveFlow])

	sel := selectionOf(pick{tenSwords, false}, pick{twoCups, false}, pick{aceWands, false})
	out, err := e.Interpret(sel, domain.DomainSpiritual, "")
	require.NoError(t, err)

	general := table.Domains[domain.DomainGeneral]
	assert.True(t, strings.HasSuffix(out.Sections[2].Content, general.Positions[domain.PositionChallenge].Upright))
	assert.Equal(t, general.Framings[FramingPositiveFlow], out.Combined)
	assert.Equal(t, table.Domains[domain.DomainSpiritual].Conclusion, out.Conclusion)
}

func TestInterpret_Summary(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	table, _ := DefaultTable()
	sel := selectionOf(pick{fool, false}, pick{twoCups, false}, pick{aceWands, false})

	noQuestion, err := e.Interpret(sel, domain.DomainHealth, "   ")
	require.NoError(t, err)
	assert.Equal(t, table.Domains[domain.DomainHealth].Opener, noQuestion.Summary)

	q := "Will I {{card}} feel rested?"
	withQuestion, err := e.Interpret(sel, domain.DomainHealth, q)
	require.NoError(t, err)
	assert.Contains(t, withQuestion.Summary, q, "question is quoted verbatim and never expanded")

	padded := "  Should I move?\n"
	withPadding, err := e.Interpret(sel, domain.DomainHealth, padded)
	require.NoError(t, err)
	assert.Contains(t, withPadding.Summary, padded)
}

func TestInterpret_ConclusionPerDomain(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	table, _ := DefaultTable()

	upright := selectionOf(pick{fool, false}, pick{twoCups, false}, pick{aceWands, false})
	reversed := selectionOf(pick{tower, true}, pick{tenSwords, true}, pick{sixPentacl, true})
	for _, d := range domain.Domains {
		a, err := e.Interpret(upright, d, "")
		require.NoError(t, err)
		b, err := e.Interpret(reversed, d, "")
		require.NoError(t, err)
		assert.Equal(t, a.Conclusion, b.Conclusion, "conclusion is independent of the cards")
		assert.Equal(t, table.conclusion(d), a.Conclusion)
	}
}

func TestInterpret_Errors(t *testing.T) {
	t.Parallel()
	e := newEngine(t)

	_, err := e.Interpret(selectionOf(pick{fool, false}), domain.DomainLove, "")
	assert.ErrorIs(t, err, domain.ErrWrongSelectionCount)

	sel := selectionOf(pick{fool, false}, pick{twoCups, false}, pick{aceWands, false})
	_, err = e.Interpret(sel, "astrology", "")
	assert.ErrorIs(t, err, domain.ErrInvalidDomain)
}

func TestLoadTable_Validation(t *testing.T) {
	t.Parallel()

	_, err := LoadTable(strings.NewReader("question_summary: x\ndomains: {}\n"), domain.ThreeCardSpread)
	assert.ErrorIs(t, err, ErrIncompleteTable)

	_, err = LoadTable(strings.NewReader("unknown_key: 1\n"), domain.ThreeCardSpread)
	assert.Error(t, err)

	incomplete := `
question_summary: "q"
positions:
  Self: {upright: a, reversed: b}
  Circumstance: {upright: a, reversed: b}
  Challenge: {upright: a, reversed: b}
domains:
  general:
    opener: o
    conclusion: c
    positions:
      Self: {upright: a, reversed: b}
      Circumstance: {upright: a, reversed: b}
      Challenge: {upright: a}
    framings: {transition: t, significant_change: s, blocked_energy: b, positive_flow: p}
`
	_, err = LoadTable(strings.NewReader(incomplete), domain.ThreeCardSpread)
	assert.ErrorIs(t, err, ErrIncompleteTable)
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	sel := selectionOf(pick{fool, false}, pick{twoCups, true}, pick{tower, false})
	local := domain.Interpretation{
		Summary: "local summary",
		Sections: []domain.Section{
			{Title: "Self: The Fool", Content: "local self"},
			{Title: "Circumstance: Two of Cups (Reversed)", Content: "local circumstance"},
			{Title: "Challenge: The Tower", Content: "local challenge"},
		},
		Combined:   "local combined",
		Conclusion: "local conclusion",
	}
	wantTitles := []string{"Self: The Fool", "Circumstance: Two of Cups (Reversed)", "Challenge: The Tower"}

	titles := func(in domain.Interpretation) []string {
		out := make([]string, len(in.Sections))
		for i, s := range in.Sections {
			out[i] = s.Title
		}
		return out
	}
	contents := func(in domain.Interpretation) []string {
		out := make([]string, len(in.Sections))
		for i, s := range in.Sections {
			out[i] = s.Content
		}
		return out
	}

	t.Run("keeps a complete remote interpretation", func(t *testing.T) {
		remote := domain.Interpretation{
			Summary: "remote summary",
			Sections: []domain.Section{
				{Title: "Self: The Fool", Content: "9"},
				{Title: "Circumstance: Two of Cups (Reversed)", Content: "8"},
				{Title: "Challenge: The Tower", Content: "7"},
			},
			Combined:   "remote combined",
			Conclusion: "remote conclusion",
		}
		assert.Equal(t, remote, Reconcile(remote, local, sel))
	})

	t.Run("places sections by position, not by arrival order", func(t *testing.T) {
		remote := domain.Interpretation{
			Combined: "c",
			Sections: []domain.Section{
				{Title: "Challenge: The Tower", Content: "upheaval"},
				{Title: "Circumstance: Two of Cups (Reversed)", Content: "strain"},
				{Title: "Self: The Fool", Content: "leap"},
			},
		}
		got := Reconcile(remote, local, sel)
		assert.Equal(t, wantTitles, titles(got))
		assert.Equal(t, []string{"leap", "strain", "upheaval"}, contents(got))
	})

	t.Run("bare position titles get the card title", func(t *testing.T) {
		remote := domain.Interpretation{
			Combined: "c",
			Sections: []domain.Section{
				{Title: "Self", Content: "a"},
				{Title: "circumstance", Content: "b"},
				{Title: "Challenge", Content: "c"},
			},
		}
		got := Reconcile(remote, local, sel)
		assert.Equal(t, wantTitles, titles(got))
		assert.Equal(t, []string{"a", "b", "c"}, contents(got))
	})

	t.Run("unrecognised titles keep their order", func(t *testing.T) {
		remote := domain.Interpretation{
			Combined: "c",
			Sections: []domain.Section{{Title: "x", Content: "9"}, {Title: "y", Content: "8"}, {Title: "z", Content: "7"}},
		}
		got := Reconcile(remote, local, sel)
		assert.Equal(t, wantTitles, titles(got))
		assert.Equal(t, []string{"9", "8", "7"}, contents(got))
	})

	t.Run("unmatched positions fall back to local", func(t *testing.T) {
		remote := domain.Interpretation{
			Combined: "c",
			Sections: []domain.Section{
				{Title: "Challenge: The Tower", Content: "upheaval"},
				{Title: "Outcome", Content: "ignored"},
				{Title: "Self", Content: ""},
			},
		}
		got := Reconcile(remote, local, sel)
		assert.Equal(t, wantTitles, titles(got))
		assert.Equal(t, []string{"local self", "local circumstance", "upheaval"}, contents(got))
	})

	t.Run("fills missing parts from local", func(t *testing.T) {
		remote := domain.Interpretation{
			Sections: []domain.Section{{Title: "only", Content: "one"}},
			Combined: "remote combined",
		}
		got := Reconcile(remote, local, sel)
		assert.Equal(t, local.Sections, got.Sections)
		assert.Equal(t, "local summary", got.Summary)
		assert.Equal(t, "remote combined", got.Combined)
		assert.Equal(t, "local conclusion", got.Conclusion)
		require.NoError(t, got.Validate(3))
	})

	t.Run("does not alias local sections", func(t *testing.T) {
		got := Reconcile(domain.Interpretation{}, local, sel)
		got.Sections[0].Content = "changed"
		assert.Equal(t, "local self", local.Sections[0].Content)
	})
}

func TestReconcile_EngineOutputRoundTrip(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	sel := selectionOf(pick{aceWands, false}, pick{tenSwords, true}, pick{sixPentacl, false})
	local, err := e.Interpret(sel, domain.DomainCareer, "")
	require.NoError(t, err)

	shuffled := local.Clone()
	shuffled.Sections[0], shuffled.Sections[2] = shuffled.Sections[2], shuffled.Sections[0]

	assert.Equal(t, local, Reconcile(shuffled, local, sel))
}
