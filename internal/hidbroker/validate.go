package hidbroker

import (
	"errors"
	"fmt"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
)

// ErrMixedReportIDs is returned when a device's collection tree mixes the
// zero ("no report id") convention with explicit nonzero report ids.
var ErrMixedReportIDs = errors.New("hidbroker: collection tree mixes report-id and no-report-id collections")

// ErrBadRangeBounds is returned when a range collection's bounds are
// out-of-order (low > high).
var ErrBadRangeBounds = errors.New("hidbroker: collection range has low > high bounds")

// validateCollections rejects mixed report IDs and out-of-order range
// bounds (spec §4.6: "validate the device's report-descriptor collection
// tree"), returning has_interrupt_out (true iff any collection carries an
// output report).
func validateCollections(cols []protocol.Collection) (hasInterruptOut bool, err error) {
	if len(cols) == 0 {
		return false, nil
	}

	sawZero := false
	sawNonzero := false
	for _, c := range cols {
		if c.ReportID == 0 {
			sawZero = true
		} else {
			sawNonzero = true
		}
		if c.IsRange && c.RangeLow > c.RangeHigh {
			return false, fmt.Errorf("%w: report id %d range [%d,%d]", ErrBadRangeBounds, c.ReportID, c.RangeLow, c.RangeHigh)
		}
		if c.HasOutput {
			hasInterruptOut = true
		}
	}
	if sawZero && sawNonzero {
		return false, ErrMixedReportIDs
	}
	return hasInterruptOut, nil
}
