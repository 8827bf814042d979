package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waymark/pkg/platform/sentinel"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(CodeConflict, "label name must be unique")
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.Contains(t, err.Error(), "label name must be unique")
}

func TestWrapPreservesCause(t *testing.T) {
	err := Wrap(sentinel.ErrNotFound, CodeNotFound, "visit not found")
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeNotFound))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeStorage, "write failed")
	outer := fmt.Errorf("creating visit: %w", inner)
	assert.True(t, HasCode(outer, CodeStorage))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeSigning, CodeOf(New(CodeSigning, "keystore write failed")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))
}
