package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCodeAndRow(t *testing.T) {
	base := MalformedRecord(17, io.ErrUnexpectedEOF)
	wrapped := Wrapf(base, "chunk %d", 3)

	assert.Equal(t, CodeMalformedRecord, GetCode(wrapped))
	assert.Equal(t, int64(17), GetRow(wrapped))
	assert.True(t, stderrors.Is(wrapped, io.ErrUnexpectedEOF))
	assert.Contains(t, wrapped.Error(), "row 17")
}

func TestGetCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("run: %w", EmptyInput("data.csv"))

	assert.True(t, HasCode(err, CodeEmptyInput))
	assert.False(t, HasCode(err, CodeInvalidSelection))
	assert.Equal(t, "UNKNOWN", GetCode(io.EOF))
	assert.False(t, HasCode(nil, CodeEmptyInput))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "nothing"))
	assert.NoError(t, WithCode(CodeInternalError, nil))
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	err := Wrap(io.EOF, "read header")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Equal(t, "read header: EOF", err.Error())
}
