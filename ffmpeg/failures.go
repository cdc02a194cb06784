package ffmpeg

import "regexp"

// Stderr patterns that identify a hardware-encoder initialization failure as
// opposed to a bad input. A match means the same build is worth retrying on
// the software encoder.
var hardwareFailurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)cannot load (libnvidia-encode|nvcuda)`),
	regexp.MustCompile(`(?i)no (nvenc )?capable devices found`),
	regexp.MustCompile(`(?i)openencodesessionex failed`),
	regexp.MustCompile(`(?i)cannot init cuda`),
	regexp.MustCompile(`(?i)cuda_error`),
	regexp.MustCompile(`(?i)driver does not support the required nvenc api version`),
	regexp.MustCompile(`(?i)unknown encoder '[^']*nvenc[^']*'`),
	regexp.MustCompile(`(?i)failed to initiali[sz]e nvenc`),
}

// IsHardwareFailure reports whether the tool output of a failed run points at
// an unavailable or broken hardware encoder.
func IsHardwareFailure(output string) bool {
	for _, p := range hardwareFailurePatterns {
		if p.MatchString(output) {
			return true
		}
	}
	return false
}
