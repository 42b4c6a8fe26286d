package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Shape converts a raw provider payload into the browser-facing form.
type Shape func(json.RawMessage) (any, error)

// SearchResult is the reshaped creator search response.
type SearchResult struct {
	Creators []json.RawMessage `json:"creators"`
	Total    int               `json:"total"`
}

// Location is one location lookup match.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Summary is the reshaped language-model response.
type Summary struct {
	Summary string `json:"summary"`
	Model   string `json:"model"`
}

var errNoCompletion = errors.New("completion has no choices")

// shapeSearch accepts {"data"|"results"|"items"|"accounts": [...], "total"|"total_count"|"count": n}.
func shapeSearch(raw json.RawMessage) (any, error) {
	var body struct {
		Data       []json.RawMessage `json:"data"`
		Results    []json.RawMessage `json:"results"`
		Items      []json.RawMessage `json:"items"`
		Accounts   []json.RawMessage `json:"accounts"`
		Total      *int              `json:"total"`
		TotalCount *int              `json:"total_count"`
		Count      *int              `json:"count"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}

	out := SearchResult{Creators: firstNonNil(body.Data, body.Results, body.Items, body.Accounts)}
	if out.Creators == nil {
		out.Creators = []json.RawMessage{}
	}
	switch {
	case body.Total != nil:
		out.Total = *body.Total
	case body.TotalCount != nil:
		out.Total = *body.TotalCount
	case body.Count != nil:
		out.Total = *body.Count
	default:
		out.Total = len(out.Creators)
	}
	return out, nil
}

// shapeLocations accepts a bare array or {"data": [...]} of objects with an
// id (string or number) and a name or title.
func shapeLocations(raw json.RawMessage) (any, error) {
	type item struct {
		ID    json.RawMessage `json:"id"`
		Name  string          `json:"name"`
		Title string          `json:"title"`
	}
	var items []item
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
	} else {
		var body struct {
			Data []item `json:"data"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, err
		}
		items = body.Data
	}

	out := make([]Location, 0, len(items))
	for _, it := range items {
		name := it.Name
		if name == "" {
			name = it.Title
		}
		id := rawID(it.ID)
		if id == "" || name == "" {
			continue
		}
		out = append(out, Location{ID: id, Name: name})
	}
	return out, nil
}

// shapeSummary reads an OpenAI-compatible chat completion.
func shapeSummary(raw json.RawMessage) (any, error) {
	var body struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if len(body.Choices) == 0 {
		return nil, errNoCompletion
	}
	return Summary{
		Summary: strings.TrimSpace(body.Choices[0].Message.Content),
		Model:   body.Model,
	}, nil
}

func firstNonNil(lists ...[]json.RawMessage) []json.RawMessage {
	for _, l := range lists {
		if l != nil {
			return l
		}
	}
	return nil
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}
