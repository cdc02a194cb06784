package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// minKeepSeconds is the shortest window worth trimming down to. Requests that
// would leave less than this are built untrimmed instead of failing.
const minKeepSeconds = 0.1

// TrimSpec holds the seconds removed from the head and tail of a clip before
// it enters a mix.
//
// Equality is value-based through Key(): two specs with the same canonical
// rendering address the same cache entry. The requested values always form
// the key; clamping against the probed duration only changes the playback
// window handed to the transcoder.
type TrimSpec struct {
	Head float64 `json:"head" yaml:"head"`
	Tail float64 `json:"tail" yaml:"tail"`
}

// Validate checks that both trim values are non-negative and finite.
func (t TrimSpec) Validate() error {
	var errors []string

	if t.Head < 0 {
		errors = append(errors, "head trim cannot be negative")
	}
	if t.Tail < 0 {
		errors = append(errors, "tail trim cannot be negative")
	}
	if math.IsNaN(t.Head) || math.IsInf(t.Head, 0) {
		errors = append(errors, "head trim must be a finite number")
	}
	if math.IsNaN(t.Tail) || math.IsInf(t.Tail, 0) {
		errors = append(errors, "tail trim must be a finite number")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}
	return nil
}

// IsZero reports whether no trimming was requested at all.
func (t TrimSpec) IsZero() bool {
	return t.Head == 0 && t.Tail == 0
}

// Key returns the canonical textual form used as a cache-key component,
// e.g. "h0_t1" or "h1.5_t2". Integer values render without decimals,
// fractional values to one decimal place.
func (t TrimSpec) Key() string {
	return "h" + FormatTrimValue(t.Head) + "_t" + FormatTrimValue(t.Tail)
}

// FormatTrimValue renders one trim value canonically: "3" for 3.0, "1.5" for
// 1.5. The one-decimal rounding makes 1.25 and 1.34 share the key "1.3".
func FormatTrimValue(v float64) string {
	rounded := math.Round(v*10) / 10
	if rounded == math.Trunc(rounded) {
		return strconv.FormatInt(int64(rounded), 10)
	}
	return strconv.FormatFloat(rounded, 'f', 1, 64)
}

// Window computes the effective playback window for a source of the given
// duration (seconds). It returns the start offset and the kept length; a
// length of 0 means "through end of stream".
//
// Clamping rules:
//   - no trim requested → (0, 0)
//   - known duration where head+tail would leave less than minKeepSeconds →
//     the clip is used untrimmed
//   - known duration → (head, duration-head-tail)
//   - unknown duration (≤ 0) → head offset only; callers must probe before
//     applying a tail trim
func (t TrimSpec) Window(duration float64) (start, length float64) {
	if t.IsZero() {
		return 0, 0
	}

	if duration > 0 {
		if duration-t.Head-t.Tail < minKeepSeconds {
			return 0, 0
		}
		if t.Tail == 0 {
			return t.Head, 0
		}
		return t.Head, duration - t.Head - t.Tail
	}

	return t.Head, 0
}
