package errors_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	svcErr "github.com/chatlink/anonchat/internal/errors"
)

func TestMapStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{gorm.ErrRecordNotFound, 404},
		{fmt.Errorf("load user: %w", gorm.ErrRecordNotFound), 404},
		{svcErr.ErrBanned, 403},
		{svcErr.ErrAlreadyChatting, 409},
		{svcErr.ErrNotInChat, 409},
		{svcErr.ErrFeatureLocked, 403},
		{svcErr.ErrUnauthorized, 401},
		{context.DeadlineExceeded, 504},
		{context.Canceled, 503},
		{fmt.Errorf("something else"), 500},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, svcErr.Map(tc.err).Status, "err: %v", tc.err)
	}
}

func TestMapPassesThroughTypedErrors(t *testing.T) {
	orig := svcErr.InvalidArgument("bad input")
	mapped := svcErr.Map(fmt.Errorf("handler: %w", orig))
	assert.Equal(t, 400, mapped.Status)
	assert.Equal(t, "bad input", mapped.Message)
}
