package crawler

import "errors"

// ErrSwitchingProtocols is returned (and propagated as a fatal,
// run-terminating error) whenever an HTTP 101 response is observed, either
// during robots.txt acquisition or while loading a page. spec.md §1 lists
// protocol-upgrade support as a Non-goal and §4.3/§4.4 both specify this as
// a fatal condition.
var ErrSwitchingProtocols = errors.New("101 Switching Protocols not supported")

// ErrInvalidSeed is returned when the seed URL cannot be parsed or uses a
// non-HTTP(S) scheme.
var ErrInvalidSeed = errors.New("invalid seed URL")
