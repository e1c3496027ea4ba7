package models_test

import (
	"testing"

	"github.com/myrjola/casemate/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCase_lookups(t *testing.T) {
	c := models.Case{
		Parties: []models.Party{{ID: "s1", Name: "Julian Sterling"}, {ID: "s2", Name: "Elena Vance"}},
		Clues:   []models.Clue{{ID: "c1", Title: "Empty Vial"}},
	}

	p, ok := c.Party("s2")
	require.True(t, ok)
	require.Equal(t, "Elena Vance", p.Name)

	_, ok = c.Party("gone")
	require.False(t, ok)
	require.Equal(t, "gone", c.PartyName("gone"), "dangling ids fall back to the raw id")
	require.Equal(t, "Julian Sterling", c.PartyName("s1"))

	require.Equal(t, []models.Party{{ID: "s1", Name: "Julian Sterling"}}, c.ResolveParties([]string{"gone", "s1"}))
	require.Equal(t, []models.Clue{{ID: "c1", Title: "Empty Vial"}}, c.ResolveClues([]string{"c1", "c9"}))
	require.Empty(t, c.ResolveClues(nil))
}

func TestCollection_Valid(t *testing.T) {
	for _, c := range models.Collections {
		require.True(t, c.Valid(), string(c))
	}
	require.False(t, models.Collection("evidences").Valid())
}
