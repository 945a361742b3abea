package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomErrorWrapKeepsTemplate(t *testing.T) {
	cause := errors.New("redis: connection refused")
	err := ErrServiceUnavailable.Wrap(cause)

	assert.Equal(t, ErrCodeServiceUnavailable, err.Code)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ErrServiceUnavailable.Err, "template must not be mutated")

	assert.Empty(t, err.Response(false).Details)
	assert.Equal(t, cause.Error(), err.Response(true).Details)
}

func TestAsCustomError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ErrSensorDataMissing.Wrap(errors.New("no snapshot")))
	ce := AsCustomError(wrapped)
	assert.Equal(t, ErrCodeSensorDataMissing, ce.Code)
	assert.Equal(t, http.StatusNotFound, ce.Status)
	assert.Equal(t, "No sensor data found for this user.", ce.Response(false).Message)

	plain := AsCustomError(errors.New("boom"))
	assert.Equal(t, ErrCodeInternalError, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"intent": "help"}`, `{"intent": "help"}`},
		{"fenced", "```json\n{\"intent\": \"greeting\"}\n```", `{"intent": "greeting"}`},
		{"surrounding text", `Sure! {"intent": "fallback"} hope it helps`, `{"intent": "fallback"}`},
		{"unquoted keys", `{intent: "help", confidence: 0.9}`, `{"intent": "help", "confidence": 0.9}`},
		{"no object", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.in))
		})
	}
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	var v map[string]interface{}
	require.NoError(t, ParseJSON(`{"a": 1}`, &v))
	assert.Contains(t, v, "a")

	assert.Error(t, ParseJSON(`{"a": 1} {"b": 2}`, &v))
}

func TestFilterFieldsDropsSecrets(t *testing.T) {
	assert.True(t, sensitiveKey("api_key"))
	assert.True(t, sensitiveKey("OpenRouterAPIKey"))
	assert.True(t, sensitiveKey("redis_password"))
	assert.False(t, sensitiveKey("user_id"))
}

func TestGenerateUUID(t *testing.T) {
	a, b := GenerateUUID(), GenerateUUID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
