package dedup

import (
	"sort"

	"github.com/samjoshuadud/automation-notion/models"
)

// DuplicateGroup is a set of existing records the matcher considers the
// same assignment. Groups surface records that slipped past ingest-time
// deduplication, e.g. state written before the fuzzy tier existed.
type DuplicateGroup struct {
	// Kind is the strongest tier that links the group: MatchExact when any
	// two members share a signature, MatchFuzzy otherwise.
	Kind MatchKind
	// MinConfidence is the weakest pairwise similarity inside the group.
	MinConfidence float64
	Records       []models.Assignment
}

// DuplicateGroups scans a collection for records that duplicate each other.
// Records sharing a normalized title+course signature group as exact;
// course-scoped fuzzy pairs at or above the threshold group as fuzzy.
// Linked pairs are merged transitively into one group.
func (m *Matcher) DuplicateGroups(records []models.Assignment) []DuplicateGroup {
	threshold := m.FuzzyThreshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}

	n := len(records)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		parent[find(a)] = find(b)
	}

	type edge struct{ exact bool }
	linkKind := make(map[[2]int]edge)
	confidence := make(map[[2]int]float64)

	sigs := make([]string, n)
	titles := make([]string, n)
	for i, r := range records {
		sigs[i] = Signature(r.Title, r.CourseCode)
		titles[i] = NormalizeTitle(r.Title)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			key := [2]int{i, j}
			if sigs[i] == sigs[j] {
				union(i, j)
				linkKind[key] = edge{exact: true}
				confidence[key] = 1.0
				continue
			}
			if !sameCourse(records[i], records[j]) {
				continue
			}
			if score := similarity(titles[i], titles[j]); score >= threshold {
				union(i, j)
				linkKind[key] = edge{exact: false}
				confidence[key] = score
			}
		}
	}

	members := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := find(i)
		members[root] = append(members[root], i)
	}

	var groups []DuplicateGroup
	for _, idxs := range members {
		if len(idxs) < 2 {
			continue
		}
		group := DuplicateGroup{Kind: MatchFuzzy, MinConfidence: 1.0}
		for _, i := range idxs {
			group.Records = append(group.Records, records[i])
		}
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				key := [2]int{idxs[a], idxs[b]}
				e, linked := linkKind[key]
				if !linked {
					continue
				}
				if e.exact {
					group.Kind = MatchExact
				}
				if c := confidence[key]; c < group.MinConfidence {
					group.MinConfidence = c
				}
			}
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Records[0].Title < groups[j].Records[0].Title
	})
	return groups
}
