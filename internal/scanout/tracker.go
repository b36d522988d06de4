package scanout

import (
	"log"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
)

// Tracker resolves the Open Question from spec §9: when both the legacy
// linear-framebuffer path and the modern driver path are configured and
// publish concurrently, the most recently published valid generation wins;
// on a tie (equal generation, which cannot happen under one seqlock but can
// happen across two independently-published descriptors wired to the same
// tracker) ModernDriver wins, since an actively-programming driver implies
// the legacy path is stale.
type Tracker struct {
	lastGeneration uint32
	lastSource     protocol.ScanoutSource
	haveSeen       bool
}

// Observe records one valid scanout snapshot and reports whether it should
// currently be considered the active source.
func (t *Tracker) Observe(f ScanoutFields) bool {
	if !t.haveSeen {
		t.haveSeen = true
		t.lastGeneration = f.Generation
		t.lastSource = f.Source
		return true
	}
	switch {
	case f.Generation > t.lastGeneration:
		t.logSwitchIfNeeded(f.Source)
		t.lastGeneration = f.Generation
		t.lastSource = f.Source
		return true
	case f.Generation == t.lastGeneration:
		win := f.Source == protocol.SourceModernDriver
		if win {
			t.logSwitchIfNeeded(f.Source)
			t.lastSource = f.Source
		}
		return win
	default:
		return false
	}
}

func (t *Tracker) logSwitchIfNeeded(newSource protocol.ScanoutSource) {
	if t.haveSeen && newSource != t.lastSource {
		log.Printf("scanout: active source switched from %v to %v", t.lastSource, newSource)
	}
}
