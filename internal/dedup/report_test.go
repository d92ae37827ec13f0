package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samjoshuadud/automation-notion/models"
)

func TestDuplicateGroups(t *testing.T) {
	m := NewMatcher()
	records := []models.Assignment{
		assignment("a", "User Story Mapping", "HCI", "HCI300", ""),
		assignment("b", "User Story Maping", "HCI", "HCI300", ""),
		assignment("c", "USER STORY MAPPING", "HCI", "HCI300", ""),
		assignment("d", "User Story Mapping", "Databases", "DB200", ""),
		assignment("e", "Final Exam Review", "Calculus", "MATH2", ""),
	}

	groups := m.DuplicateGroups(records)
	require.Len(t, groups, 1)

	// a and c share a signature, b joins via fuzzy; d is another course,
	// e is unrelated.
	group := groups[0]
	assert.Equal(t, MatchExact, group.Kind)
	require.Len(t, group.Records, 3)
	ids := make([]string, 0, 3)
	for _, r := range group.Records {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
	assert.Less(t, group.MinConfidence, 1.0)
	assert.GreaterOrEqual(t, group.MinConfidence, m.FuzzyThreshold)
}

func TestDuplicateGroupsFuzzyOnly(t *testing.T) {
	m := NewMatcher()
	records := []models.Assignment{
		assignment("a", "Module 3 Quiz", "Networks", "NET1", ""),
		assignment("b", "Module 3 Quizz", "Networks", "NET1", ""),
	}

	groups := m.DuplicateGroups(records)
	require.Len(t, groups, 1)
	assert.Equal(t, MatchFuzzy, groups[0].Kind)
	assert.Len(t, groups[0].Records, 2)
}

func TestDuplicateGroupsCleanCollection(t *testing.T) {
	m := NewMatcher()
	records := []models.Assignment{
		assignment("a", "Essay Draft", "Writing", "WR1", ""),
		assignment("b", "Lab Report", "Physics", "PH1", ""),
	}
	assert.Empty(t, m.DuplicateGroups(records))
}
