package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrInvalidAddress,
		ErrProbe,
		ErrDuplicateDevice,
		ErrInvalidDevice,
		ErrPersistence,
		ErrBusy,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "duplicate device",
			code:       ErrDuplicateDevice,
			message:    "192.168.1.10 is already in the swarm",
			suggestion: "Remove it first if you want to re-add it",
		},
		{
			name:       "invalid device",
			code:       ErrInvalidDevice,
			message:    "192.168.1.99 doesn't look like a miner",
			suggestion: "Check the address and that the device is powered on",
		},
		{
			name:       "busy",
			code:       ErrBusy,
			message:    "A scan is already running",
			suggestion: "Wait for it to finish",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name:          "basic error formatting",
			err:           New(ErrConfig, "Invalid configuration", "Check .swarm.yaml syntax"),
			expectedParts: []string{"✗", "Invalid configuration", "Check .swarm.yaml syntax"},
		},
		{
			name:          "error without suggestion",
			err:           New(ErrProbe, "Restart failed", ""),
			expectedParts: []string{"Restart failed"},
			notExpected:   []string{"\n\n  \n"},
		},
		{
			name:          "error with cause",
			err:           WrapWithCode(fmt.Errorf("disk full"), ErrPersistence, "Couldn't save the swarm", ""),
			expectedParts: []string{"Couldn't save the swarm", "disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()
			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, output, part)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(cause, "Device unreachable")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrProbe, wrapped.Code, "Wrap should default to ErrProbe code")
	assert.Equal(t, "Device unreachable", wrapped.Message)
	assert.Equal(t, cause, wrapped.Cause)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestInvalidAddress(t *testing.T) {
	err := InvalidAddress("300.1.1.1", "IPv4 address")

	assert.Equal(t, ErrInvalidAddress, err.Code)
	assert.Contains(t, err.Message, "300.1.1.1")
	assert.Contains(t, err.Message, "IPv4 address")
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "Config error", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(err, ErrProbe))
	assert.False(t, IsCode(errors.New("standard error"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))

	wrapped := fmt.Errorf("outer: %w", New(ErrBusy, "busy", ""))
	assert.True(t, IsCode(wrapped, ErrBusy))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrPersistence, CodeOf(New(ErrPersistence, "x", "")))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}

func TestErrorMessageStructure(t *testing.T) {
	err := WrapWithCode(
		errors.New("context deadline exceeded"),
		ErrProbe,
		"Couldn't reach 192.168.1.10",
		"Check the device is on the network",
	)

	lines := strings.Split(err.Error(), "\n")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "✗"))
	assert.Contains(t, lines[0], "Couldn't reach 192.168.1.10")
}
