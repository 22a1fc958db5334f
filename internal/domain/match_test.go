package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch_OutcomeFor(t *testing.T) {
	won := Match{WhiteClient: "alice-0001", BlackClient: "bob-000002", Winner: "w"}
	drawn := Match{WhiteClient: "alice-0001", BlackClient: "bob-000002"}

	tests := []struct {
		name   string
		match  Match
		client string
		want   MatchOutcome
		ok     bool
	}{
		{"white wins", won, "alice-0001", MatchOutcomeWin, true},
		{"black loses", won, "bob-000002", MatchOutcomeLose, true},
		{"draw", drawn, "bob-000002", MatchOutcomeDraw, true},
		{"stranger", won, "carol-0003", "", false},
		{"empty identity", Match{}, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.match.OutcomeFor(tt.client)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
