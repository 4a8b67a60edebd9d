package rpc

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goran-ethernal/ModerationIndexor/internal/common"
)

var (
	tooManyResultsRe = regexp.MustCompile(
		`(?i)(query returned more than \d+ results|log response size exceeded|block range is too large|range too large)`)
	suggestedRangeRe = regexp.MustCompile(`\[(0x[0-9a-fA-F]+),\s*(0x[0-9a-fA-F]+)\]`)
)

// IsTooManyResultsError reports whether a log query was rejected for returning too much data.
// Providers put the detail either in the error message or in the JSON-RPC error data;
// the returned string is whichever of the two matched, so callers can look for a suggested range.
func IsTooManyResultsError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data := fmt.Sprintf("%v", dataErr.ErrorData()); tooManyResultsRe.MatchString(data) {
			return true, data
		}
	}

	if msg := err.Error(); tooManyResultsRe.MatchString(msg) {
		return true, msg
	}

	return false, ""
}

// ParseSuggestedBlockRange extracts the block range a provider suggests in a
// "too many results" error, e.g. "... Try with this block range [0x7dfd25, 0x7e0fcc]."
func ParseSuggestedBlockRange(msg string) (fromBlock, toBlock uint64, ok bool) {
	matches := suggestedRangeRe.FindStringSubmatch(msg)
	if len(matches) != 3 { //nolint:mnd
		return 0, 0, false
	}

	from, err := common.ParseUint64OrHex(matches[1])
	if err != nil {
		return 0, 0, false
	}

	to, err := common.ParseUint64OrHex(matches[2])
	if err != nil || to < from {
		return 0, 0, false
	}

	return from, to, true
}
