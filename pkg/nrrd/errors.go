package nrrd

import "errors"

// Common errors
var (
	ErrNotNRRD         = errors.New("not a NRRD file")
	ErrMalformedHeader = errors.New("malformed NRRD header")
	ErrUnsupported     = errors.New("unsupported NRRD feature")
	ErrShortData       = errors.New("NRRD data shorter than header declares")
)
