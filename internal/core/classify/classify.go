// Package classify maps platform rejection codes to operator guidance
package classify

import "errors"

// Known platform rejection codes
const (
	CodeGenericRejection = -1
	CodeNoSession        = -100
	CodeChallenge        = 300012
)

// Coded is implemented by adapter errors that carry the platform's
// structured code and msg payload
type Coded interface {
	PlatformCode() int
	PlatformMsg() string
}

// Classification is the enriched view of a platform failure
type Classification struct {
	Code        int      `json:"code"`
	Msg         string   `json:"msg"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// suggestions is the fixed mapping of known codes to remediation text
var suggestions = map[int][]string{
	CodeGenericRejection: {
		"content may violate platform policy, reword the title or body",
		"check image formats and sizes, the platform rejects oversized or exotic files",
		"title or content may be malformed, strip unusual characters",
		"the account may be rate limited, slow down publishing",
		"the session cookie may be expired, re-authenticate and retry",
	},
	CodeNoSession: {
		"session cookie is invalid or expired, log in again and supply a fresh cookie",
	},
	CodeChallenge: {
		"the platform requires interactive verification, back off and retry later",
	},
}

// Classify extracts a platform code/msg payload from err and attaches the
// fixed remediation list for known codes. The second return is false when
// err carries no structured payload; such errors classify to an empty
// suggestion list. Classify performs no I/O and never fails.
func Classify(err error) (Classification, bool) {
	var coded Coded
	if !errors.As(err, &coded) {
		return Classification{}, false
	}
	c := Classification{Code: coded.PlatformCode(), Msg: coded.PlatformMsg()}
	c.Suggestions = suggestions[c.Code]
	return c, true
}
