package similarity

// Reason is a qualitative description of a similarity score. It depends only
// on the final score, not on which tier produced it.
type Reason string

const (
	ReasonNearlyIdentical      Reason = "nearly_identical"
	ReasonVerySimilar          Reason = "very_similar"
	ReasonPartiallyOverlapping Reason = "partially_overlapping"
	ReasonPossiblyRelated      Reason = "possibly_related"
	ReasonUnrelated            Reason = "unrelated"
)

// ReasonFor maps a score to its reason using fixed 80/60/40/20 thresholds.
func ReasonFor(score int) Reason {
	switch {
	case score >= 80:
		return ReasonNearlyIdentical
	case score >= 60:
		return ReasonVerySimilar
	case score >= 40:
		return ReasonPartiallyOverlapping
	case score >= 20:
		return ReasonPossiblyRelated
	default:
		return ReasonUnrelated
	}
}

var reasonText = map[Reason]struct{ en, ru string }{
	ReasonNearlyIdentical:      {"nearly identical", "Категории практически идентичны"},
	ReasonVerySimilar:          {"very similar", "Категории очень похожи"},
	ReasonPartiallyOverlapping: {"partially overlapping", "Категории частично совпадают"},
	ReasonPossiblyRelated:      {"possibly related", "Категории могут быть связаны"},
	ReasonUnrelated:            {"unrelated", "Категории не связаны"},
}

// Text returns the user-facing description in the given language ("ru" or
// anything else for English).
func (r Reason) Text(lang string) string {
	t, ok := reasonText[r]
	if !ok {
		return string(r)
	}
	if lang == "ru" {
		return t.ru
	}
	return t.en
}

// String returns the English description.
func (r Reason) String() string {
	return r.Text("en")
}
