package errors_test

import (
	"errors"
	"fmt"
	"testing"

	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrap_PreservesCode(t *testing.T) {
	base := dnderr.NotFoundf("session %s not found", "abc").WithMeta("session_id", "abc")

	wrapped := dnderr.Wrap(fmt.Errorf("repo: %w", base), "failed to load combat")

	assert.True(t, dnderr.IsNotFound(wrapped))
	assert.Equal(t, "abc", dnderr.GetMeta(wrapped)["session_id"])
	assert.Equal(t, "failed to load combat: repo: session abc not found", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
}

func TestWrap_PlainErrorIsUnknown(t *testing.T) {
	wrapped := dnderr.Wrap(errors.New("boom"), "context")

	assert.Equal(t, dnderr.CodeUnknown, dnderr.GetCode(wrapped))
	assert.Nil(t, dnderr.Wrap(nil, "nothing"))
	assert.Nil(t, dnderr.Wrapf(nil, "nothing %d", 1))
}

func TestWrapWithCode_Overrides(t *testing.T) {
	err := dnderr.StorageFailure(dnderr.NotFound("gone"), "write failed")

	assert.Equal(t, dnderr.CodeStorageFailure, dnderr.GetCode(err))
	assert.False(t, dnderr.IsNotFound(err))
}

func TestHelpers(t *testing.T) {
	assert.True(t, dnderr.IsInvalidArgument(dnderr.InvalidArgumentf("bad %s", "input")))
	assert.True(t, dnderr.IsAlreadyExists(dnderr.AlreadyExistsf("dup %s", "x")))
	assert.True(t, dnderr.IsNoActiveCombat(dnderr.NoActiveCombat("idle")))
	assert.True(t, dnderr.IsSessionPaused(dnderr.SessionPaused("paused")))
	assert.True(t, dnderr.IsConflict(dnderr.Conflict("raced")))
	assert.Equal(t, dnderr.CodeInternal, dnderr.GetCode(dnderr.Internalf("oops")))
	assert.Equal(t, dnderr.CodeUnknown, dnderr.GetCode(errors.New("plain")))
	assert.Nil(t, dnderr.GetMeta(errors.New("plain")))
}
