package join

// joinKeyField is the top-level field carrying the join key in consolidated
// records.
const joinKeyField = "join_key"

// Consolidate merges a matched pair (or an unmatched singleton, with the
// missing side nil) into one flat record. Fields are qualified with their
// side's source label so the two sides never collide; a missing side simply
// contributes no fields. Reading back a prefixed field recovers the original
// value unchanged.
func Consolidate(key string, left, right map[string]any, leftLabel, rightLabel string) map[string]any {
	out := make(map[string]any, len(left)+len(right)+1)
	out[joinKeyField] = key
	for f, v := range left {
		out[leftLabel+"."+f] = v
	}
	for f, v := range right {
		out[rightLabel+"."+f] = v
	}
	return out
}

// sideLabels derives the consolidation prefixes for the two sources. When
// both sources carry the same label (a self-join), the sides fall back to
// plain left/right so fields from the two sides stay distinguishable.
func sideLabels(left, right Source) (string, string) {
	l, r := left.Label(), right.Label()
	if l == "" || r == "" || l == r {
		return "left", "right"
	}
	return l, r
}
