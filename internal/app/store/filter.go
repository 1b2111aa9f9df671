package store

import (
	"strings"

	"algo_answer_hub/internal/domain/model"
)

// Filter is a pure, synchronous predicate over the local view. Empty search
// matches everything; a non-empty tag set matches questions sharing at least
// one tag (OR, not AND); empty difficulty matches all. Source ordering is
// preserved and the stored view is never mutated.
func (s *QuestionStore) Filter(searchTerm string, tags []string, difficulty model.Difficulty) []model.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(searchTerm)
	out := []model.Question{}
	for i := range s.view {
		q := s.view[i]
		if needle != "" &&
			!strings.Contains(strings.ToLower(q.Title), needle) &&
			!strings.Contains(strings.ToLower(q.Description), needle) {
			continue
		}
		if len(tags) > 0 && !hasAnyTag(q.Tags, tags) {
			continue
		}
		if difficulty != "" && q.Difficulty != difficulty {
			continue
		}
		out = append(out, q)
	}
	return out
}

func hasAnyTag(questionTags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range questionTags {
			if t == w {
				return true
			}
		}
	}
	return false
}
