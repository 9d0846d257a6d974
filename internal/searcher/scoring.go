package searcher

// Scores throughout the searcher are cosine distances: 0 is a perfect
// match, larger is worse. Lexical ranks are mapped into the same space
// before merging so one comparison works for both phases.

// DistanceCutoff converts a relevance percentage into a maximum
// distance. The usable distance range spans 0.3 of the cosine scale, so
// a 5% bar admits distances up to 0.985 and a 20% bar up to 0.94.
func DistanceCutoff(pct float64) float64 {
	return 1.0 - pct/100.0*0.3
}

// ScorePercent converts a distance into a 0-100 relevance percentage
// for display
func ScorePercent(distance float64) float64 {
	pct := (1.0 - distance) / 0.3 * 100.0
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// lexicalToDistance maps a BM25 rank in [0, 1) into distance space.
// Strong lexical hits (rank 0.5 and above) land at distance 0 and
// always survive the relevance cutoffs; weak hits fall off linearly
// toward distance 1 as the rank approaches 0.
func lexicalToDistance(rank float64) float64 {
	distance := 1.0 - rank*2.0
	if distance < 0 {
		return 0
	}
	return distance
}
