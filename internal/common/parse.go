package common

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

var errEmptyNumber = errors.New("empty number")

// ParseUint64OrHex parses a decimal number or a 0x-prefixed hex number,
// as block numbers and ids appear in provider messages and request paths.
func ParseUint64OrHex(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyNumber
	}

	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}

	return strconv.ParseUint(s, 10, 64)
}

// ParseAmount parses a non-negative decimal token amount in wei.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errEmptyNumber
	}

	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", s)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}

	return amount, nil
}

func ToLowerWithTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
