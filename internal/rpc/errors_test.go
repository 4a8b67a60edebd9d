package rpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testDataError struct {
	msg  string
	data interface{}
}

func (e *testDataError) Error() string          { return e.msg }
func (e *testDataError) ErrorData() interface{} { return e.data }

func TestIsTooManyResultsError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    bool
		wantMsg string
	}{
		{name: "nil", err: nil, want: false},
		{
			name:    "data error",
			err:     &testDataError{msg: "limit exceeded", data: "Query returned more than 20000 results. Try with this block range [0x10, 0x20]."},
			want:    true,
			wantMsg: "Query returned more than 20000 results. Try with this block range [0x10, 0x20].",
		},
		{
			name:    "plain message",
			err:     errors.New("query returned more than 10000 results"),
			want:    true,
			wantMsg: "query returned more than 10000 results",
		},
		{
			name:    "range too large",
			err:     errors.New("eth_getLogs block range is too large"),
			want:    true,
			wantMsg: "eth_getLogs block range is too large",
		},
		{name: "unrelated", err: errors.New("execution reverted"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := IsTooManyResultsError(tt.err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestParseSuggestedBlockRange(t *testing.T) {
	from, to, ok := ParseSuggestedBlockRange("Try with this block range [0x7dfd25, 0x7e0fcc].")
	require.True(t, ok)
	require.Equal(t, uint64(0x7dfd25), from)
	require.Equal(t, uint64(0x7e0fcc), to)

	_, _, ok = ParseSuggestedBlockRange("no range here")
	require.False(t, ok)

	_, _, ok = ParseSuggestedBlockRange("[0x20, 0x10]")
	require.False(t, ok, "inverted range must be rejected")

	_, _, ok = ParseSuggestedBlockRange("")
	require.False(t, ok)
}
