package dedup

import (
	"github.com/agnivade/levenshtein"

	"github.com/samjoshuadud/automation-notion/models"
	"github.com/samjoshuadud/automation-notion/types"
)

// MatchKind classifies the outcome of duplicate detection.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchFuzzy
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchFuzzy:
		return "fuzzy"
	}
	return "none"
}

// MatchResult reports whether a candidate duplicates an existing record.
type MatchResult struct {
	Kind       MatchKind
	Matched    *models.Assignment
	Confidence float64
}

const (
	// DefaultFuzzyThreshold mirrors the historical 85% fuzzywuzzy cutoff.
	DefaultFuzzyThreshold = 0.85
	// DefaultAmbiguityBand is how close the two best fuzzy scores may be
	// before the matcher refuses to pick one.
	DefaultAmbiguityBand = 0.03
)

// Matcher runs the three-tier duplicate check: origin identity, normalized
// title+course signature, then course-scoped fuzzy similarity.
type Matcher struct {
	FuzzyThreshold float64
	AmbiguityBand  float64
}

// NewMatcher returns a matcher with the default threshold and band.
func NewMatcher() *Matcher {
	return &Matcher{
		FuzzyThreshold: DefaultFuzzyThreshold,
		AmbiguityBand:  DefaultAmbiguityBand,
	}
}

// Match checks candidate against existing records in strict tier order;
// the first tier that hits wins. A returned *types.AmbiguousMatchError
// means the fuzzy tier found two contenders it could not separate; the
// result is then MatchNone (a wrong merge is worse than a duplicate).
func (m *Matcher) Match(candidate models.Assignment, existing []models.Assignment) (MatchResult, error) {
	// Tier 1: origin identity. Authoritative even when title or course
	// differ, because it reflects the origin system's own deduplication.
	if id := candidate.ExternalID(); id != "" {
		for i := range existing {
			if existing[i].ExternalID() == id {
				return MatchResult{Kind: MatchExact, Matched: &existing[i], Confidence: 1.0}, nil
			}
		}
	}

	// Tier 2: normalized title + course code signature.
	sig := Signature(candidate.Title, candidate.CourseCode)
	for i := range existing {
		if Signature(existing[i].Title, existing[i].CourseCode) == sig {
			return MatchResult{Kind: MatchExact, Matched: &existing[i], Confidence: 1.0}, nil
		}
	}

	// Tier 3: fuzzy similarity within the same course only.
	threshold := m.FuzzyThreshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	candidateTitle := NormalizeTitle(candidate.Title)

	var (
		best, second       float64
		bestIdx, secondIdx = -1, -1
	)
	for i := range existing {
		if !sameCourse(candidate, existing[i]) {
			continue
		}
		score := similarity(candidateTitle, NormalizeTitle(existing[i].Title))
		if score < threshold {
			continue
		}
		switch {
		case bestIdx == -1 || score > best:
			second, secondIdx = best, bestIdx
			best, bestIdx = score, i
		case score == best:
			// Tie on score: prefer the most recently updated record.
			if existing[i].LastUpdated.After(existing[bestIdx].LastUpdated) {
				second, secondIdx = best, bestIdx
				bestIdx = i
			} else {
				second, secondIdx = score, i
			}
		case secondIdx == -1 || score > second:
			second, secondIdx = score, i
		}
	}

	if bestIdx == -1 {
		return MatchResult{Kind: MatchNone}, nil
	}

	// Exact score ties were already broken by recency above; only a strict
	// near-tie between two distinct records is ambiguous.
	if secondIdx != -1 && secondIdx != bestIdx && best > second && best-second < m.AmbiguityBand &&
		existing[bestIdx].ID != existing[secondIdx].ID {
		return MatchResult{Kind: MatchNone}, &types.AmbiguousMatchError{
			Candidate: candidate.Title,
			FirstID:   existing[bestIdx].ID,
			SecondID:  existing[secondIdx].ID,
			First:     best,
			Second:    second,
		}
	}

	return MatchResult{Kind: MatchFuzzy, Matched: &existing[bestIdx], Confidence: best}, nil
}

// sameCourse decides whether two records are in scope for fuzzy matching.
// Cross-course titles never match: every course has an "Activity 1".
func sameCourse(a, b models.Assignment) bool {
	ac, bc := NormalizeCourse(a.CourseCode), NormalizeCourse(b.CourseCode)
	if ac != "" && bc != "" {
		return ac == bc
	}
	an, bn := NormalizeCourse(a.Course), NormalizeCourse(b.Course)
	if an == "" || bn == "" {
		return false
	}
	return an == bn
}

// similarity is a Levenshtein ratio in [0,1], the same family of measure
// as the fuzz.ratio the project historically tuned its threshold against.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}
