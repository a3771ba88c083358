package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMissingGroups(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    map[string]int
		wantErr bool
	}{
		{name: "typical", encoded: "GK:1,DF:2", want: map[string]int{"GK": 1, "DF": 2}},
		{name: "empty is fully staffed", encoded: "", want: map[string]int{}},
		{name: "whitespace tolerated", encoded: " GK:1 , FW:3 ", want: map[string]int{"GK": 1, "FW": 3}},
		{name: "missing separator", encoded: "GK1", wantErr: true},
		{name: "unknown code", encoded: "XX:2", wantErr: true},
		{name: "zero count not encodable", encoded: "GK:0", wantErr: true},
		{name: "negative count", encoded: "DF:-1", wantErr: true},
		{name: "non-numeric count", encoded: "DF:two", wantErr: true},
		{name: "duplicate code", encoded: "GK:1,GK:2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMissingGroups(tt.encoded)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMissingGroupsOrdersAndDropsZeros(t *testing.T) {
	encoded := FormatMissingGroups(map[string]int{"FW": 1, "GK": 2, "MF": 0, "DF": 3})
	assert.Equal(t, "GK:2,DF:3,FW:1", encoded)

	assert.Equal(t, "", FormatMissingGroups(nil))
	assert.Equal(t, "", FormatMissingGroups(map[string]int{"GK": 0}))
}

func TestMissingGroupsRoundTrip(t *testing.T) {
	counts := map[string]int{"GK": 1, "MF": 4}
	parsed, err := ParseMissingGroups(FormatMissingGroups(counts))
	require.NoError(t, err)
	assert.Equal(t, counts, parsed)
}

func TestResultMessageDerivedFromStatus(t *testing.T) {
	assert.Contains(t, ResultMessageFor(RequestStatusAccepted, "GK"), "accepted")
	assert.Contains(t, ResultMessageFor(RequestStatusRejected, "GK"), "rejected")
	assert.Empty(t, ResultMessageFor(RequestStatusPending, "GK"))
}
