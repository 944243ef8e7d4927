package gemini

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"github.com/phrazzld/arcana/internal/generation"
)

//go:embed prompt.tmpl
var defaultPrompt string

// promptData is the data passed to the prompt template.
type promptData struct {
	Domain   string
	Question string
	Cards    []promptCard
}

type promptCard struct {
	Position    string
	Name        string
	Orientation string
	Meaning     string
}

// loadPromptTemplate parses the template at path, or the embedded default
// when path is empty.
func loadPromptTemplate(path string) (*template.Template, error) {
	text := defaultPrompt
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, path, err)
		}
		text = string(content)
	}

	tmpl, err := template.New("interpretation").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

func renderPrompt(tmpl *template.Template, req generation.Request) (string, error) {
	data := promptData{
		Domain:   string(req.Domain),
		Question: req.Question,
		Cards:    make([]promptCard, 0, len(req.Selection)),
	}
	for _, sc := range req.Selection {
		data.Cards = append(data.Cards, promptCard{
			Position:    string(sc.Position),
			Name:        sc.Name,
			Orientation: sc.Orientation(),
			Meaning:     sc.Meaning(),
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
