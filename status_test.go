package callmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveStatusBucket(t *testing.T) {
	testCases := []struct {
		code int
		want StatusBucket
	}{
		{code: 100, want: StatusInformational},
		{code: 199, want: StatusInformational},
		{code: 200, want: StatusSuccess},
		{code: 204, want: StatusSuccess},
		{code: 300, want: StatusRedirection},
		{code: 304, want: StatusRedirection},
		{code: 400, want: StatusClientError},
		{code: 429, want: StatusClientError},
		{code: 500, want: StatusServerError},
		{code: 599, want: StatusServerError},
		{code: 0, want: StatusUnknown},
		{code: -1, want: StatusUnknown},
		{code: 99, want: StatusUnknown},
		{code: 600, want: StatusUnknown},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, ResolveStatusBucket(tc.code), "code %d", tc.code)
	}
	assert.Equal(t, "client_error", StatusClientError.String())
}
