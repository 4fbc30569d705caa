package apitypes_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MereWhiplash/semfind/internal/apitypes"
	"github.com/MereWhiplash/semfind/internal/types"
)

func TestErrorKindsSurviveTheWire(t *testing.T) {
	cause := errors.New("cause")
	for _, tc := range []struct {
		err  error
		kind error
	}{
		{types.IOError("read", cause), types.ErrIO},
		{types.EmbeddingError("infer", cause), types.ErrEmbedding},
		{types.StoreError("insert", cause), types.ErrStore},
		{types.NotFoundError("search"), types.ErrNotFound},
	} {
		resp := apitypes.ErrorResponse{Error: tc.err.Error(), Kind: apitypes.KindOf(tc.err)}
		got := apitypes.ErrorFromResponse("remote", resp)
		assert.ErrorIs(t, got, tc.kind, tc.err.Error())
	}
}

func TestErrorFromResponse_Untyped(t *testing.T) {
	got := apitypes.ErrorFromResponse("remote", apitypes.ErrorResponse{Error: "boom"})
	assert.EqualError(t, got, "boom")
	assert.Equal(t, "", apitypes.KindOf(got))
}
