package common

import "fmt"

var (
	ErrSchemeNotFound    = fmt.Errorf("scheme not found")
	ErrAmbiguousScheme   = fmt.Errorf("more than one scheme matches")
	ErrDestinationExists = fmt.Errorf("destination directory already exists")
	ErrBadListing        = fmt.Errorf("unexpected directory listing format")
	ErrUnknownOperation  = fmt.Errorf("unknown operation")
)
