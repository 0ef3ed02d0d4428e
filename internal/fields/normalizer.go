// Package fields turns free-text header labels into canonical field keys.
package fields

import (
	"strings"

	"purissima/internal"
	"purissima/internal/util"
)

type Normalizer struct {
	labels map[string]internal.FieldKey
}

// New copies DefaultLabels and layers extra on top. Keys of extra are slugged,
// so "Criado em" and "criado_em" land on the same entry.
func New(extra map[string]string) *Normalizer {
	labels := make(map[string]internal.FieldKey, len(DefaultLabels)+len(extra))
	for k, v := range DefaultLabels {
		labels[k] = v
	}
	for k, v := range extra {
		slug := util.Slug(k)
		if slug == "" || strings.TrimSpace(v) == "" {
			continue
		}
		labels[slug] = internal.FieldKey(strings.TrimSpace(v))
	}
	return &Normalizer{labels: labels}
}

func (n *Normalizer) Key(label string) (internal.FieldKey, bool) {
	slug := util.Slug(label)
	if slug == "" {
		return "", false
	}
	key, ok := n.labels[slug]
	return key, ok
}

func (n *Normalizer) Slug(label string) string {
	return util.Slug(label)
}

func NormalizeText(value string) string {
	return util.NormalizeSpaces(value)
}

func ComposeAddress(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := NormalizeText(p); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ", ")
}

// AddressOf composes the address stored in fields, in street-to-zip order.
func AddressOf(fields map[internal.FieldKey]string) string {
	parts := make([]string, 0, len(internal.AddressFields))
	for _, k := range internal.AddressFields {
		parts = append(parts, fields[k])
	}
	return ComposeAddress(parts...)
}
