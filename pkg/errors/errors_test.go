package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New(ErrCodeValidation, "bad selector")
	assert.Equal(t, "[CLIENT_001] bad selector", e.Error())

	e = e.WithDetail("model_xyz")
	assert.Equal(t, "[CLIENT_001] bad selector: model_xyz", e.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	e := Wrap(cause, ErrCodeNetwork, "request failed")
	require.NotNil(t, e)
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, cause, e.Unwrap())
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeNetwork, "ignored"))
}

func TestWrap_PreservesCodeOnUnknown(t *testing.T) {
	inner := Authentication("bad credentials")
	wrapped := Wrap(fmt.Errorf("predict: %w", inner), CodeUnknown, "prediction failed")
	assert.Equal(t, ErrCodeAuthentication, wrapped.Code)
}

func TestIsCode(t *testing.T) {
	e := Timeout("timed out after 3 attempts")
	wrapped := fmt.Errorf("predict: %w", e)

	assert.True(t, IsCode(wrapped, ErrCodeTimeout))
	assert.False(t, IsCode(wrapped, ErrCodeNetwork))
	assert.False(t, IsCode(nil, ErrCodeTimeout))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeParse, GetCode(Parse("Water solubility", "[]")))
}

func TestFactories(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"validation", Validation("empty models list"), ErrCodeValidation, 0},
		{"authentication", Authentication("invalid credentials"), ErrCodeAuthentication, 401},
		{"api", API(503, "service down"), ErrCodeAPI, 503},
		{"network", Network("connection failed"), ErrCodeNetwork, 0},
		{"timeout", Timeout("deadline exceeded"), ErrCodeTimeout, 0},
		{"file", File("input.json not found"), ErrCodeFile, 0},
		{"config", Config("base URL must use https"), ErrCodeConfig, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestParse_NamesModelKey(t *testing.T) {
	e := Parse("Melting point", `"oops"`)
	assert.Contains(t, e.Error(), "Melting point")
	assert.Equal(t, `"oops"`, e.Detail)
}

func TestCodeClassification(t *testing.T) {
	assert.True(t, IsLocal(ErrCodeValidation))
	assert.True(t, IsLocal(ErrCodeFile))
	assert.False(t, IsLocal(ErrCodeNetwork))

	assert.True(t, IsTransport(ErrCodeTimeout))
	assert.True(t, IsTransport(ErrCodeNetwork))
	assert.False(t, IsTransport(ErrCodeAPI))
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "request timed out", DefaultMessageForCode(ErrCodeTimeout))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("NOPE")))
}
