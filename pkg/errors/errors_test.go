// Package errors_test covers the AppError type, factory functions, and
// error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"template parse", errors.ErrCodeTemplateParse, "unbalanced bracket"},
		{"invalid param", errors.CodeInvalidParam, "smarts must not be empty"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

func TestNewf(t *testing.T) {
	ae := errors.Newf(errors.ErrCodeStructureParse, "unexpected %q at %d", ")", 3)
	assert.Equal(t, `unexpected ")" at 3`, ae.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "noop"))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	ae := errors.Wrap(cause, errors.ErrCodeTelemetryPersist, "save failed")

	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, cause))
	assert.Equal(t, "[TEL_001] save failed: disk full", ae.Error())
}

func TestWrap_UnknownKeepsInnerCode(t *testing.T) {
	inner := errors.New(errors.ErrCodeRunFailure, "arity mismatch")
	outer := errors.Wrap(inner, errors.CodeUnknown, "apply failed")
	assert.Equal(t, errors.ErrCodeRunFailure, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Builders and inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestWithDetail_DoesNotMutateReceiver(t *testing.T) {
	base := errors.InvalidParam("bad input")
	detailed := base.WithDetail("field=smarts")

	assert.Empty(t, base.Detail)
	assert.Equal(t, "field=smarts", detailed.Detail)
	assert.Equal(t, "[COMMON_002] bad input: field=smarts", detailed.Error())

	var nilErr *errors.AppError
	assert.Nil(t, nilErr.WithDetail("x"))
	assert.Nil(t, nilErr.WithCause(stderrors.New("x")))
}

func TestIsCode_TraversesChain(t *testing.T) {
	inner := errors.New(errors.ErrCodeTemplateParse, "bad template")
	wrapped := fmt.Errorf("handler: %w", inner)

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeTemplateParse))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeRunFailure))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeRunFailure))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeSanitize, errors.GetCode(errors.New(errors.ErrCodeSanitize, "valence")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeCatalogEntryNotFound, "alkene_gen_1")))
	assert.False(t, errors.IsNotFound(errors.Internal("x")))
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", stderrors.New("boom"), "boom"},
		{"app", errors.New(errors.ErrCodeTemplateParse, "invalid reaction template").WithDetail("unexpected ']' at 4"), "invalid reaction template: unexpected ']' at 4"},
		{"nested", errors.Wrap(stderrors.New("timeout"), errors.ErrCodeAIInferenceFailed, "embed failed"), "embed failed: timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errors.UserMessage(tc.err))
		})
	}
}

//Personal.AI order the ending
