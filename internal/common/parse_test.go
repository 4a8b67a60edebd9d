package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseUint64OrHex(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{input: "12345", want: 12345},
		{input: "0x7dfd25", want: 0x7dfd25},
		{input: "0XDEADBEEF", want: 0xDEADBEEF},
		{input: " 42 ", want: 42},
		{input: "18446744073709551615", want: 18446744073709551615},
		{input: "18446744073709551616", wantErr: true},
		{input: "12abc", wantErr: true},
		{input: "0xGHIJ", wantErr: true},
		{input: "0x", wantErr: true},
		{input: "-1", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUint64OrHex(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("1000000000000000000")
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", amount.String())

	amount, err = ParseAmount("0")
	require.NoError(t, err)
	require.Zero(t, amount.Sign())

	for _, bad := range []string{"", "1e18", "0x10", "-5", "1.5"} {
		_, err := ParseAmount(bad)
		require.Error(t, err, bad)
	}
}

func TestToLowerWithTrim(t *testing.T) {
	require.Equal(t, "debug", ToLowerWithTrim("  DeBuG \n"))
}
