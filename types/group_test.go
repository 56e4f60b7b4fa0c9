package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemberStatus(t *testing.T) {
	status, err := ParseMemberStatus("pending")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	status, err = ParseMemberStatus("active")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, status)

	_, err = ParseMemberStatus("rejected")
	assert.Error(t, err)
}

func TestMemberStatusJSON(t *testing.T) {
	member := GroupMember{UserID: 7, Username: "kasia", Status: StatusActive}

	data, err := json.Marshal(member)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"active"`)

	var decoded GroupMember
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, StatusActive, decoded.Status)
}
