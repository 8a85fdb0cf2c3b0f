package suggest

import "errors"

// ErrMalformed is returned by a Suggester whose upstream answered with
// output that could not be parsed into suggestions. The Service substitutes
// the fallback set when it sees it.
var ErrMalformed = errors.New("malformed suggestion output")
