package svccache

// A victimPolicy orders entries by eviction preference: it reports whether a
// should be dropped before b. Eviction is one scan keeping the minimum under
// this order, so each policy is an ordering rule rather than its own loop.
type victimPolicy func(a, b *Entry) bool

var policies = map[string]victimPolicy{
	"fifo": func(a, b *Entry) bool { return a.StoredAt.Before(b.StoredAt) },
	"lru":  func(a, b *Entry) bool { return a.LastAccessAt.Before(b.LastAccessAt) },
	"lfu": func(a, b *Entry) bool {
		if a.HitCount != b.HitCount {
			return a.HitCount < b.HitCount
		}
		// Equal hit counts: the staler entry loses.
		return a.LastAccessAt.Before(b.LastAccessAt)
	},
}

// policyFor maps the configured policy name onto its ordering. Unknown names
// fall back to LRU.
func policyFor(name string) victimPolicy {
	if p, ok := policies[name]; ok {
		return p
	}
	return policies["lru"]
}

// selectVictim returns the entry the policy ranks first for eviction, or nil
// when there is nothing to evict.
func selectVictim(entries map[string]*Entry, prefer victimPolicy) *Entry {
	var victim *Entry
	for _, entry := range entries {
		if victim == nil || prefer(entry, victim) {
			victim = entry
		}
	}
	return victim
}
