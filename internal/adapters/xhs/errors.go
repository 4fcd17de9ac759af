package xhs

import "fmt"

// PlatformError carries the structured code/msg payload the platform
// attaches to rejected calls. It satisfies classify.Coded so failures
// can be enriched with remediation guidance
type PlatformError struct {
	Code int
	Msg  string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform rejected call: code=%d msg=%q", e.Code, e.Msg)
}

// PlatformCode returns the upstream failure code
func (e *PlatformError) PlatformCode() int { return e.Code }

// PlatformMsg returns the upstream failure message
func (e *PlatformError) PlatformMsg() string { return e.Msg }
