package facade

import (
	"github.com/hupe1980/facade/model"
)

// aggregate folds candidate matches into a single outcome.
//
// Candidates are grouped by label. The group with the greatest total
// similarity wins, so three decent views of one building outvote a single
// strong look-alike of another. The winner's confidence is its mean
// similarity; description and reference path come from its best member.
// Ties go to the group holding the better-ranked candidate.
func aggregate(results []model.SimilarityResult) model.RecognitionOutcome {
	if len(results) == 0 {
		return model.Unknown()
	}

	type group struct {
		sum   float32
		count int
		best  int
	}

	groups := make(map[string]*group, len(results))
	var order []string
	for i, r := range results {
		g, ok := groups[r.Label]
		if !ok {
			g = &group{best: i}
			groups[r.Label] = g
			order = append(order, r.Label)
		}
		g.sum += r.Similarity
		g.count++
		if r.Similarity > results[g.best].Similarity {
			g.best = i
		}
	}

	// Results arrive similarity-ordered, so on equal sums the earlier
	// label holds the better-ranked candidate.
	winner := order[0]
	for _, label := range order[1:] {
		if groups[label].sum > groups[winner].sum {
			winner = label
		}
	}

	g := groups[winner]
	best := results[g.best]
	return model.RecognitionOutcome{
		Label:         winner,
		Confidence:    g.sum / float32(g.count),
		Description:   best.Description,
		ReferencePath: best.ReferencePath,
	}
}
