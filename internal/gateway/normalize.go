package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
)

// envelopeKeys are the wrappers backends have been seen to nest an
// interpretation under, checked in order.
var envelopeKeys = []string{"interpretation", "data", "result"}

// NormalizeInterpretation converts a backend interpretation payload into the
// canonical shape. It accepts:
//   - the canonical object {summary, sections, combined, conclusion}
//   - that object nested under "interpretation", "data" or "result", at any
//     depth (for example data.interpretation)
//   - a bare JSON string, which becomes the combined narrative
//
// Sections may be an array of {title, content} or an object mapping title
// to content, kept in document order. Titles are not trusted to follow any
// format; interpretation.Reconcile places sections by position. Payloads without a combined
// narrative or with an unusable section shape fail with ErrMalformedResponse.
func NormalizeInterpretation(raw json.RawMessage) (domain.Interpretation, error) {
	return normalizeInterpretation(raw, 0)
}

const maxEnvelopeDepth = 4

func normalizeInterpretation(raw json.RawMessage, depth int) (domain.Interpretation, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.Interpretation{}, fmt.Errorf("%w: empty interpretation", ErrMalformedResponse)
	}
	if depth > maxEnvelopeDepth {
		return domain.Interpretation{}, fmt.Errorf("%w: interpretation nested too deeply", ErrMalformedResponse)
	}

	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return domain.Interpretation{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return domain.Interpretation{}, fmt.Errorf("%w: empty interpretation text", ErrMalformedResponse)
		}
		return domain.Interpretation{Combined: text}, nil
	case '{':
	default:
		return domain.Interpretation{}, fmt.Errorf("%w: unexpected interpretation payload", ErrMalformedResponse)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return domain.Interpretation{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if isCanonical(obj) {
		return decodeCanonical(obj)
	}
	for _, key := range envelopeKeys {
		if inner, ok := obj[key]; ok {
			return normalizeInterpretation(inner, depth+1)
		}
	}
	return domain.Interpretation{}, fmt.Errorf("%w: no interpretation found", ErrMalformedResponse)
}

func isCanonical(obj map[string]json.RawMessage) bool {
	for _, k := range []string{"summary", "sections", "combined", "conclusion"} {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func decodeCanonical(obj map[string]json.RawMessage) (domain.Interpretation, error) {
	var out domain.Interpretation
	for key, dst := range map[string]*string{
		"summary":    &out.Summary,
		"combined":   &out.Combined,
		"conclusion": &out.Conclusion,
	} {
		if v, ok := obj[key]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			if err := json.Unmarshal(v, dst); err != nil {
				return domain.Interpretation{}, fmt.Errorf("%w: field %s: %v", ErrMalformedResponse, key, err)
			}
		}
	}
	if strings.TrimSpace(out.Combined) == "" {
		return domain.Interpretation{}, fmt.Errorf("%w: missing combined narrative", ErrMalformedResponse)
	}

	sections, err := decodeSections(obj["sections"])
	if err != nil {
		return domain.Interpretation{}, err
	}
	out.Sections = sections
	return out, nil
}

func decodeSections(raw json.RawMessage) ([]domain.Section, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var sections []domain.Section
		if err := json.Unmarshal(raw, &sections); err != nil {
			return nil, fmt.Errorf("%w: sections: %v", ErrMalformedResponse, err)
		}
		for i, s := range sections {
			if s.Title == "" || s.Content == "" {
				return nil, fmt.Errorf("%w: section %d is incomplete", ErrMalformedResponse, i)
			}
		}
		return sections, nil
	case '{':
		sections, err := decodeSectionMap(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: sections: %v", ErrMalformedResponse, err)
		}
		return sections, nil
	default:
		return nil, fmt.Errorf("%w: unexpected sections payload", ErrMalformedResponse)
	}
}

// decodeSectionMap reads a title to content object, keeping the order the
// keys appear in the document.
func decodeSectionMap(raw json.RawMessage) ([]domain.Section, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var sections []domain.Section
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		title, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		var content string
		if err := dec.Decode(&content); err != nil {
			return nil, fmt.Errorf("section %q: %w", title, err)
		}
		sections = append(sections, domain.Section{Title: title, Content: content})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return sections, nil
}

// NormalizeReadingResult converts a create-reading response into a
// ReadingResult. The reading ID may be named "reading_id", "readingId" or
// "id", and the whole body may be wrapped in "data". A missing interpretation
// leaves ReadingResult.Interpretation nil; a present but malformed one is an
// error.
func NormalizeReadingResult(raw json.RawMessage) (ReadingResult, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ReadingResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if data, ok := obj["data"]; ok && readingIDOf(obj) == "" {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil {
			obj = inner
		}
	}

	idText := readingIDOf(obj)
	if idText == "" {
		return ReadingResult{}, fmt.Errorf("%w: missing reading id", ErrMalformedResponse)
	}
	id, err := uuid.Parse(idText)
	if err != nil {
		return ReadingResult{}, fmt.Errorf("%w: reading id: %v", ErrMalformedResponse, err)
	}

	result := ReadingResult{ReadingID: id}
	if interp, ok := obj["interpretation"]; ok && !bytes.Equal(bytes.TrimSpace(interp), []byte("null")) {
		in, err := NormalizeInterpretation(interp)
		if err != nil {
			return ReadingResult{}, err
		}
		result.Interpretation = &in
	}
	return result, nil
}

func readingIDOf(obj map[string]json.RawMessage) string {
	for _, key := range []string{"reading_id", "readingId", "id"} {
		if v, ok := obj[key]; ok {
			var s string
			if json.Unmarshal(v, &s) == nil && s != "" {
				return s
			}
		}
	}
	return ""
}
