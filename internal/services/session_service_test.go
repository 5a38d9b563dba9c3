package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIssueAndValidate(t *testing.T) {
	sessions := NewSessionService("secret", time.Hour)

	token, err := sessions.Issue("Ana@Example.com")
	require.NoError(t, err)

	email, err := sessions.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)
}

func TestSessionRejectsOtherSecret(t *testing.T) {
	token, err := NewSessionService("secret", time.Hour).Issue("ana@example.com")
	require.NoError(t, err)

	_, err = NewSessionService("other", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestSessionExpires(t *testing.T) {
	sessions := NewSessionService("secret", time.Hour)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return issued }

	token, err := sessions.Issue("ana@example.com")
	require.NoError(t, err)

	sessions.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = sessions.Validate(token)
	assert.Error(t, err)
}

func TestSessionWithoutSecret(t *testing.T) {
	_, err := NewSessionService("", time.Hour).Issue("ana@example.com")
	assert.Error(t, err)
}
