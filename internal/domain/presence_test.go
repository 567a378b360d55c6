package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

func TestParseAgentStatus(t *testing.T) {
	status, err := ParseAgentStatus(" break ")
	assert.NoError(t, err)
	assert.Equal(t, AgentStatusBreak, status)

	_, err = ParseAgentStatus("Lunch")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidFormat))
}

func TestParseMessageType(t *testing.T) {
	mt, err := ParseMessageType("")
	assert.NoError(t, err)
	assert.Equal(t, MessageTypeDirect, mt)

	mt, err = ParseMessageType("Broadcast")
	assert.NoError(t, err)
	assert.Equal(t, MessageTypeBroadcast, mt)

	_, err = ParseMessageType("email")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidFormat))
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("")
	assert.NoError(t, err)
	assert.Equal(t, PriorityNormal, p)

	p, err = ParsePriority("HIGH")
	assert.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("urgent")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidFormat))
}
