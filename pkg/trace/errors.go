package trace

import "errors"

// ErrBadTrace is returned when a trace lists a child job before all of
// its parents have appeared. Trace ingestion refuses to construct the
// workflow rather than guess at ordering.
var ErrBadTrace = errors.New("bad trace")
