package knowledge

import (
	"sort"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
)

// Record domains.
const (
	TypeAttraction    = "attraction"
	TypeRestaurant    = "restaurant"
	TypeHotel         = "hotel"
	TypeEvent         = "event"
	TypeFAQ           = "faq"
	TypePracticalInfo = "practical_info"
	TypeItinerary     = "itinerary"
	TypeLocation      = "location"
)

// Record is one knowledge item. The schema is deliberately loose: per-language
// names and descriptions plus a free-form field map, so the domains can carry
// different attributes without schema churn. FAQs keep the question in Names
// and the answer in Descriptions; practical info uses Fields["category"];
// itineraries use Fields["days"].
type Record struct {
	ID           string            `json:"id" yaml:"id"`
	Type         string            `json:"type" yaml:"type"`
	Names        map[string]string `json:"names" yaml:"names"`
	Descriptions map[string]string `json:"descriptions,omitempty" yaml:"descriptions,omitempty"`
	Location     string            `json:"location,omitempty" yaml:"location,omitempty"`
	Tags         []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Fields       map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Name returns the display name for a language, falling back to the base
// language, then defaultLang, then any name in deterministic key order.
func (r Record) Name(lang, defaultLang string) string {
	return localizedValue(r.Names, lang, defaultLang)
}

// Description returns the localized description with the same fallback as
// Name. Missing descriptions yield the empty string.
func (r Record) Description(lang, defaultLang string) string {
	return localizedValue(r.Descriptions, lang, defaultLang)
}

func localizedValue(values map[string]string, lang, defaultLang string) string {
	if len(values) == 0 {
		return ""
	}
	for _, candidate := range []string{lang, config.BaseLanguage(lang), defaultLang} {
		if v, ok := values[candidate]; ok && v != "" {
			return v
		}
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if values[k] != "" {
			return values[k]
		}
	}
	return ""
}

// clone returns a deep copy so store internals never alias caller data.
func (r Record) clone() Record {
	out := r
	out.Names = copyMap(r.Names)
	out.Descriptions = copyMap(r.Descriptions)
	out.Fields = copyMap(r.Fields)
	out.Tags = append([]string(nil), r.Tags...)
	return out
}

func copyMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
