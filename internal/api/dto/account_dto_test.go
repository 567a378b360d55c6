package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

func TestAccountUpdateRequest_TeamID(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantPresent bool
		wantNull    bool
		wantValue   int64
		wantErr     bool
	}{
		{"absent", `{"fullName":"Jo"}`, false, false, 0, false},
		{"number", `{"teamId":3}`, true, false, 3, false},
		{"numeric string", `{"teamId":" 4 "}`, true, false, 4, false},
		{"null", `{"teamId":null}`, true, true, 0, false},
		{"empty string", `{"teamId":""}`, true, true, 0, false},
		{"fraction", `{"teamId":1.5}`, false, false, 0, true},
		{"word", `{"teamId":"two"}`, false, false, 0, true},
		{"out of range", `{"teamId":1e20}`, false, false, 0, true},
		{"negative out of range", `{"teamId":-1e20}`, false, false, 0, true},
		{"exponent in range", `{"teamId":2e1}`, true, false, 20, false},
		{"object", `{"teamId":{}}`, false, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AccountUpdateRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			patch, err := req.ToPatch()
			if tt.wantErr {
				assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPresent, patch.TeamID.Present)
			assert.Equal(t, tt.wantNull, patch.TeamID.Null)
			assert.Equal(t, tt.wantValue, patch.TeamID.Value)
		})
	}
}

func TestAccountUpdateRequest_UsernamePresence(t *testing.T) {
	var req AccountUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"username":"AG002","status":null}`), &req))
	patch, err := req.ToPatch()
	require.NoError(t, err)
	assert.True(t, patch.Username.Present)
	assert.Equal(t, "AG002", patch.Username.Value)
	assert.True(t, patch.Status.Present)
	assert.True(t, patch.Status.Null)
	assert.False(t, patch.FullName.Present)
}

func TestAccountCreateRequest_ToDraft(t *testing.T) {
	var req AccountCreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"username":"AG001","fullName":"Jo Lee","teamId":"1"}`), &req))
	draft, err := req.ToDraft()
	require.NoError(t, err)
	require.NotNil(t, draft.TeamID)
	assert.Equal(t, int64(1), *draft.TeamID)
	assert.Empty(t, draft.Role)
}

func TestLoginRequest_Code(t *testing.T) {
	assert.Equal(t, "SP001", LoginRequest{AgentCode: "  ", SupervisorCode: "SP001", Username: "AD001"}.Code())
	assert.Equal(t, "AD001", LoginRequest{Username: " AD001 "}.Code())
	assert.Empty(t, LoginRequest{}.Code())
}
