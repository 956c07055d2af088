package transitradar

// AggregateMovements flattens per-tile results into one batch and drops
// duplicate trips. A vehicle close to a shared tile edge shows up in more
// than one tile; the first occurrence in tile-configuration order wins, since
// duplicates carry near-identical data.
func AggregateMovements(tiles [][]Movement) []Movement {
	seen := map[string]struct{}{}
	out := make([]Movement, 0)
	for _, tile := range tiles {
		for _, m := range tile {
			if _, ok := seen[m.TripID]; ok {
				continue
			}
			seen[m.TripID] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
