package nlu

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
)

type fakeResolver struct {
	ids map[string]string // entityType "/" value -> record id
	err error
}

func (f *fakeResolver) ResolveEntity(_ context.Context, entityType, value, _ string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	id, ok := f.ids[entityType+"/"+value]
	return id, ok, nil
}

type fakeTokenClassifier struct {
	spans []Span
	err   error
}

func (f *fakeTokenClassifier) Classify(_ context.Context, _, _ string) ([]Span, error) {
	return f.spans, f.err
}

func testEntityConfig() config.EntityConfig {
	return config.EntityConfig{
		FuzzyMaxDistance:     2,
		MinFuzzyLength:       4,
		ResolutionConfidence: 0.95,
		Gazetteer: []config.GazetteerEntry{
			{Type: EntityAttraction, Canonical: "Pyramids of Giza", Terms: []string{"pyramids", "giza pyramids", "الاهرامات"}},
			{Type: EntityAttraction, Canonical: "Egyptian Museum", Terms: []string{"egyptian museum", "المتحف المصري"}},
			{Type: EntityLocation, Canonical: "Cairo", Terms: []string{"cairo", "القاهرة"}},
			{Type: EntityCuisine, Terms: []string{"koshary", "كشري"}},
		},
	}
}

func TestExtractGazetteerExact(t *testing.T) {
	e := NewExtractor("en", testEntityConfig())

	entities := e.Extract(context.Background(), "How do I get to the pyramids from Cairo?", "transport_query")

	attraction, ok := Result{Entities: entities}.FirstEntity(EntityAttraction)
	if !ok {
		t.Fatal("no attraction extracted")
	}
	if attraction.Value != "Pyramids of Giza" || attraction.Confidence != exactMatchConfidence {
		t.Errorf("attraction = %+v, want Pyramids of Giza at %v", attraction, exactMatchConfidence)
	}

	location, ok := Result{Entities: entities}.FirstEntity(EntityLocation)
	if !ok {
		t.Fatal("no location extracted")
	}
	if location.Value != "Cairo" {
		t.Errorf("location = %q, want Cairo", location.Value)
	}
}

func TestExtractGazetteerFuzzy(t *testing.T) {
	e := NewExtractor("en", testEntityConfig())

	entities := e.Extract(context.Background(), "tell me about the pyramds", "attraction_info")

	spans := entities[EntityAttraction]
	if len(spans) != 1 {
		t.Fatalf("attraction spans = %d, want 1", len(spans))
	}
	if spans[0].Value != "Pyramids of Giza" {
		t.Errorf("Value = %q, want canonical Pyramids of Giza", spans[0].Value)
	}
	// one edit over eight runes
	want := exactMatchConfidence * (1 - 1.0/8.0)
	if math.Abs(spans[0].Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", spans[0].Confidence, want)
	}
	if spans[0].Confidence >= exactMatchConfidence {
		t.Error("fuzzy match must score below a literal match")
	}
}

func TestExtractMultiWordTermNeedsBoundaries(t *testing.T) {
	e := NewExtractor("en", testEntityConfig())

	entities := e.Extract(context.Background(), "Is the Egyptian Museum open today?", "")
	if got, _ := (Result{Entities: entities}).FirstEntity(EntityAttraction); got.Value != "Egyptian Museum" {
		t.Errorf("attraction = %q, want Egyptian Museum", got.Value)
	}

	entities = e.Extract(context.Background(), "visit the egyptianmuseum", "")
	if len(entities[EntityAttraction]) != 0 {
		t.Errorf("embedded phrase matched: %+v", entities[EntityAttraction])
	}
}

func TestExtractCanonicalFallsBackToTerm(t *testing.T) {
	e := NewExtractor("en", testEntityConfig())

	entities := e.Extract(context.Background(), "where can I eat koshary", "restaurant_query")

	cuisine, ok := Result{Entities: entities}.FirstEntity(EntityCuisine)
	if !ok {
		t.Fatal("no cuisine extracted")
	}
	if cuisine.Value != "koshary" {
		t.Errorf("cuisine = %q, want matched term koshary", cuisine.Value)
	}
}

func TestExtractArabic(t *testing.T) {
	e := NewExtractor("ar", testEntityConfig())

	entities := e.Extract(context.Background(), "ازاي اروح الاهرامات من القاهرة", "transport_query")

	if got, _ := (Result{Entities: entities}).FirstEntity(EntityAttraction); got.Value != "Pyramids of Giza" {
		t.Errorf("attraction = %q, want Pyramids of Giza", got.Value)
	}
	if got, _ := (Result{Entities: entities}).FirstEntity(EntityLocation); got.Value != "Cairo" {
		t.Errorf("location = %q, want Cairo", got.Value)
	}
}

func TestExtractResolution(t *testing.T) {
	resolver := &fakeResolver{ids: map[string]string{
		"attraction/Pyramids of Giza": "attr_giza_pyramids",
	}}
	e := NewExtractor("en", testEntityConfig(), WithResolver(resolver))

	entities := e.Extract(context.Background(), "how much are tickets for the pyramids in cairo", "booking_inquiry")

	attraction, _ := Result{Entities: entities}.FirstEntity(EntityAttraction)
	if attraction.ResolvedID != "attr_giza_pyramids" {
		t.Errorf("ResolvedID = %q, want attr_giza_pyramids", attraction.ResolvedID)
	}
	if attraction.Confidence != 0.95 {
		t.Errorf("resolved confidence = %v, want raised to 0.95", attraction.Confidence)
	}

	// No record for Cairo: raw value and gazetteer confidence survive.
	location, _ := Result{Entities: entities}.FirstEntity(EntityLocation)
	if location.ResolvedID != "" {
		t.Errorf("ResolvedID = %q, want unresolved", location.ResolvedID)
	}
	if location.Confidence != exactMatchConfidence {
		t.Errorf("unresolved confidence = %v, want %v", location.Confidence, exactMatchConfidence)
	}
}

func TestExtractResolverErrorDegrades(t *testing.T) {
	e := NewExtractor("en", testEntityConfig(), WithResolver(&fakeResolver{err: errors.New("store offline")}))

	entities := e.Extract(context.Background(), "the pyramids", "attraction_info")

	attraction, ok := Result{Entities: entities}.FirstEntity(EntityAttraction)
	if !ok {
		t.Fatal("extraction dropped the entity on resolver failure")
	}
	if attraction.ResolvedID != "" || attraction.Confidence != exactMatchConfidence {
		t.Errorf("entity = %+v, want raw gazetteer match", attraction)
	}
}

func TestExtractTokenClassifierSpans(t *testing.T) {
	tc := &fakeTokenClassifier{spans: []Span{
		{Text: "Luxor", Label: "GPE", Confidence: 0.8},
		{Text: "Nile", Label: "MISC", Confidence: 0.9},
	}}
	e := NewExtractor("en", testEntityConfig(), WithTokenClassifier(tc))

	entities := e.Extract(context.Background(), "flights to Luxor along the Nile", "transport_query")

	if got, _ := (Result{Entities: entities}).FirstEntity(EntityLocation); got.Value != "Luxor" || got.Confidence != 0.8 {
		t.Errorf("location = %+v, want Luxor at 0.8", got)
	}
	for entityType, spans := range entities {
		for _, s := range spans {
			if s.Value == "Nile" {
				t.Errorf("unmapped label leaked through as %s", entityType)
			}
		}
	}
}

func TestExtractTokenClassifierErrorIgnored(t *testing.T) {
	tc := &fakeTokenClassifier{err: errors.New("model unavailable")}
	e := NewExtractor("en", testEntityConfig(), WithTokenClassifier(tc))

	entities := e.Extract(context.Background(), "hotels in cairo", "hotel_query")

	if got, _ := (Result{Entities: entities}).FirstEntity(EntityLocation); got.Value != "Cairo" {
		t.Errorf("gazetteer did not run after classifier failure: %+v", entities)
	}
}

func TestExtractDeduplicatesKeepingHigherConfidence(t *testing.T) {
	tc := &fakeTokenClassifier{spans: []Span{
		{Text: "Cairo", Label: "LOC", Confidence: 0.6},
	}}
	e := NewExtractor("en", testEntityConfig(), WithTokenClassifier(tc))

	entities := e.Extract(context.Background(), "staying in cairo tonight", "hotel_query")

	spans := entities[EntityLocation]
	if len(spans) != 1 {
		t.Fatalf("location spans = %+v, want single deduplicated entry", spans)
	}
	if spans[0].Confidence != exactMatchConfidence {
		t.Errorf("Confidence = %v, want higher copy %v", spans[0].Confidence, exactMatchConfidence)
	}
}

func TestExtractOrdersByConfidence(t *testing.T) {
	tc := &fakeTokenClassifier{spans: []Span{
		{Text: "Luxor", Label: "LOC", Confidence: 0.7},
	}}
	e := NewExtractor("en", testEntityConfig(), WithTokenClassifier(tc))

	entities := e.Extract(context.Background(), "from cairo to Luxor", "transport_query")

	spans := entities[EntityLocation]
	if len(spans) != 2 {
		t.Fatalf("location spans = %+v, want 2", spans)
	}
	if spans[0].Value != "Cairo" || spans[1].Value != "Luxor" {
		t.Errorf("order = [%s, %s], want [Cairo, Luxor]", spans[0].Value, spans[1].Value)
	}
}
