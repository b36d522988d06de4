package protocol

import "errors"

// ErrTooManyAllocations is returned when a submission descriptor's
// allocation_count exceeds MaxAllocationsPerSubmission (a Resource
// exhaustion error, spec §7).
var ErrTooManyAllocations = errors.New("protocol: submission descriptor exceeds max allocation count")

// ErrShortSubmission is returned when a submission descriptor buffer is
// truncated relative to its declared allocation_count.
var ErrShortSubmission = errors.New("protocol: submission descriptor buffer too short")
