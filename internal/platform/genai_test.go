package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/zeebo/assert"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("rpc error: code = Unavailable desc = backend unavailable"), true},
		{errors.New("googleapi: Error 503: backend error"), true},
		{context.DeadlineExceeded, true},
		{errors.New("rpc error: code = InvalidArgument desc = bad request"), false},
		{errors.New("googleapi: Error 400: invalid video"), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, isRetryable(c.err))
	}
}
