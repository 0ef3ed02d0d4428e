package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jhillyerd/enmime"

	"purissima/internal"
	"purissima/internal/util"
)

// htmlFromArchive pulls the HTML part out of a saved page archive (MHTML). enmime
// has already decoded the part's charset and transfer encoding.
func htmlFromArchive(raw []byte) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: read archive: %v", internal.ErrParseFatal, err)
	}
	if strings.TrimSpace(env.HTML) != "" {
		return env.HTML, nil
	}
	for _, part := range append(env.Inlines, env.OtherParts...) {
		if strings.HasPrefix(strings.ToLower(part.ContentType), "text/html") {
			return string(util.EnsureUTF8(part.Content)), nil
		}
	}
	return "", fmt.Errorf("%w: archive has no html part", internal.ErrParseFatal)
}

type apiPayload struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Results json.RawMessage `json:"results"`
}

type apiEntry struct {
	Order        map[string]json.RawMessage
	Items        []map[string]json.RawMessage
	SkippedItems int
}

type keyedEntry struct {
	Key string
	Raw json.RawMessage
}

// decodePayload reads the orders API envelope. Results may be an object keyed by
// order id or a plain list; object key order is preserved. Entries stay raw so one
// malformed order cannot take the document down with it.
func decodePayload(raw []byte) ([]keyedEntry, error) {
	var p apiPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", internal.ErrParseFatal, err)
	}
	if strings.TrimSpace(string(p.Status)) != "1" {
		msg := p.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("%w: upstream reported failure: %s", internal.ErrParseFatal, msg)
	}

	results := bytes.TrimSpace(p.Results)
	if len(results) == 0 || bytes.Equal(results, []byte("null")) {
		return nil, nil
	}
	out, err := collection(results)
	if err != nil {
		return nil, fmt.Errorf("%w: decode results: %v", internal.ErrParseFatal, err)
	}
	return out, nil
}

// collection splits a JSON list, or an object keyed by id or index, into its raw
// values in document order. PHP encodes arrays with gaps in their keys as objects.
func collection(raw json.RawMessage) ([]keyedEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty value")
	}
	switch raw[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		out := make([]keyedEntry, 0, len(list))
		for _, v := range list {
			out = append(out, keyedEntry{Raw: v})
		}
		return out, nil
	case '{':
	default:
		return nil, errors.New("neither a list nor an object")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var out []keyedEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		out = append(out, keyedEntry{Key: key, Raw: v})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return out, nil
}

// decodeEntry reads one {"order": {...}, "items": [...]} entry. Items that are not
// objects are counted and dropped; a missing or non-object order fails the entry.
func decodeEntry(raw json.RawMessage) (apiEntry, error) {
	var shell struct {
		Order json.RawMessage `json:"order"`
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &shell); err != nil {
		return apiEntry{}, err
	}

	var e apiEntry
	if err := json.Unmarshal(shell.Order, &e.Order); err != nil {
		return apiEntry{}, fmt.Errorf("order: %w", err)
	}
	if e.Order == nil {
		return apiEntry{}, errors.New("order is missing")
	}

	items := bytes.TrimSpace(shell.Items)
	if len(items) == 0 || bytes.Equal(items, []byte("null")) {
		return e, nil
	}
	list, err := collection(items)
	if err != nil {
		return apiEntry{}, fmt.Errorf("items: %w", err)
	}
	for _, it := range list {
		var item map[string]json.RawMessage
		if err := json.Unmarshal(it.Raw, &item); err != nil || item == nil {
			e.SkippedItems++
			continue
		}
		e.Items = append(e.Items, item)
	}
	return e, nil
}

// scalar renders a JSON value as the text the page would have shown. Numbers keep
// their literal form so long ids survive.
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return string(raw)
	}
}

// itemKey identifies an API item for per-order dedupe: itm_id and var_id when
// both are present, otherwise the folded name and composition. An empty key
// disables dedupe for that item.
func itemKey(item map[string]json.RawMessage) string {
	itmID, varID := scalar(item["itm_id"]), scalar(item["var_id"])
	if itmID != "" && varID != "" {
		return itmID + "_" + varID
	}
	name := strings.TrimSpace(scalar(item["itm_name"]))
	composition := strings.TrimSpace(scalar(item["composition"]))
	if name == "" && composition == "" {
		return ""
	}
	return "fallback:" + strings.ToLower(util.NormalizeSpaces(name+"|"+composition))
}
