package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
	}{
		{"user", RoleUser},
		{"agent", RoleAgent},
		{"admin", RoleAdmin},
		{" Admin ", RoleAdmin},
		{"", RoleUnknown},
		{"superuser", RoleUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.raw))
		})
	}
}

func TestRoleOrdering(t *testing.T) {
	assert.Less(t, RoleUnknown, RoleUser)
	assert.Less(t, RoleUser, RoleAgent)
	assert.Less(t, RoleAgent, RoleAdmin)
}

func TestParseAssignableRole(t *testing.T) {
	role, err := ParseAssignableRole("agent")
	require.NoError(t, err)
	assert.Equal(t, RoleAgent, role)

	_, err = ParseAssignableRole("owner")
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestRoleJSON(t *testing.T) {
	payload := struct {
		Role Role `json:"role"`
	}{Role: RoleAgent}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"agent"}`, string(raw))

	require.NoError(t, json.Unmarshal([]byte(`{"role":"root"}`), &payload))
	assert.Equal(t, RoleUnknown, payload.Role)
}

func TestParseVoteType(t *testing.T) {
	v, err := ParseVoteType("UP")
	require.NoError(t, err)
	assert.Equal(t, VoteUp, v)

	_, err = ParseVoteType("sideways")
	assert.ErrorIs(t, err, ErrInvalidEnum)
}
