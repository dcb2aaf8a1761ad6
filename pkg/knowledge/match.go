package knowledge

import (
	"sort"
	"strings"
)

// Match ranks. Exact name equality outranks substring containment, which
// outranks tag or description hits, so curated names always sort first.
const (
	scoreExactName = 3
	scoreSubstring = 2
	scoreTagOrText = 1
)

// Fuzzy lookups tolerate small typos only; anything farther than this edit
// distance is treated as a different name.
const maxLookupDistance = 2

// matchQuery scores a record against a lowercased free-text query.
// An empty query matches everything at the lowest rank so filter-only
// searches still return results.
func matchQuery(rec Record, query string) int {
	if query == "" {
		return scoreTagOrText
	}
	best := 0
	for _, name := range rec.Names {
		lowered := strings.ToLower(name)
		switch {
		case lowered == query:
			return scoreExactName
		case strings.Contains(lowered, query) || strings.Contains(query, lowered):
			if best < scoreSubstring {
				best = scoreSubstring
			}
		}
	}
	if best >= scoreSubstring {
		return best
	}
	for _, tag := range rec.Tags {
		if strings.Contains(query, strings.ToLower(tag)) || strings.Contains(strings.ToLower(tag), query) {
			return scoreTagOrText
		}
	}
	for _, desc := range rec.Descriptions {
		if strings.Contains(strings.ToLower(desc), query) {
			return scoreTagOrText
		}
	}
	return best
}

// matchFilters applies the filter keys a record understands and ignores the
// rest. Understood keys: "location" (equality or containment against the
// record location), "<type>_id" for the record's own type (exact ID match),
// the record's own type name (name containment), and any key present in the
// record's field map (case-insensitive equality).
func matchFilters(rec Record, filters map[string]string) bool {
	for key, want := range filters {
		if want == "" {
			continue
		}
		switch {
		case key == "location":
			if !matchLocation(rec, want) {
				return false
			}
		case key == rec.Type+"_id":
			if rec.ID != want {
				return false
			}
		case key == rec.Type:
			if matchQuery(rec, strings.ToLower(strings.TrimSpace(want))) == 0 {
				return false
			}
		default:
			if have, ok := rec.Fields[key]; ok && !strings.EqualFold(have, want) {
				return false
			}
		}
	}
	return true
}

func matchLocation(rec Record, want string) bool {
	loc := strings.ToLower(rec.Location)
	q := strings.ToLower(strings.TrimSpace(want))
	if loc == "" {
		return false
	}
	return loc == q || strings.Contains(loc, q) || strings.Contains(q, loc)
}

// rankRecords filters and scores records of one type, returning clones sorted
// by score descending. Ties keep input order, so seed order is the secondary
// sort key. A non-positive limit falls back to defaultSearchLimit.
func rankRecords(records []Record, recType, query string, filters map[string]string, limit int) []Record {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))

	type scored struct {
		rec   Record
		score int
	}
	matches := make([]scored, 0, limit)
	for _, rec := range records {
		if rec.Type != recType {
			continue
		}
		if !matchFilters(rec, filters) {
			continue
		}
		score := matchQuery(rec, q)
		if score == 0 {
			continue
		}
		matches = append(matches, scored{rec: rec, score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Record, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.rec.clone())
	}
	return out
}

// bestNameMatch finds the record of recType whose name (or tag) is closest to
// name: exact match first, then containment, then edit distance up to
// maxLookupDistance. Ties keep the earliest record.
func bestNameMatch(records []Record, recType, name string) (Record, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return Record{}, false
	}
	var (
		best     Record
		bestRank int
		bestDist = maxLookupDistance + 1
		found    bool
	)
	for _, rec := range records {
		if rec.Type != recType {
			continue
		}
		for _, form := range nameForms(rec) {
			rank, dist := 0, 0
			switch {
			case form == query:
				rank = scoreExactName
			case strings.Contains(form, query) || strings.Contains(query, form):
				rank = scoreSubstring
			default:
				if d := levenshtein(form, query); d <= maxLookupDistance {
					rank, dist = scoreTagOrText, d
				}
			}
			if rank == 0 {
				continue
			}
			if rank > bestRank || (rank == bestRank && dist < bestDist) {
				best, bestRank, bestDist, found = rec, rank, dist, true
			}
		}
	}
	if !found {
		return Record{}, false
	}
	return best.clone(), true
}

func nameForms(rec Record) []string {
	forms := make([]string, 0, len(rec.Names)+len(rec.Tags))
	langs := make([]string, 0, len(rec.Names))
	for lang := range rec.Names {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		forms = append(forms, strings.ToLower(rec.Names[lang]))
	}
	for _, tag := range rec.Tags {
		forms = append(forms, strings.ToLower(tag))
	}
	return forms
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
