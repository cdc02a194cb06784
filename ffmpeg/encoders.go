// Package ffmpeg parses FFmpeg tool output: the encoder capability listing
// and the stderr of failed runs.
package ffmpeg

import (
	"bufio"
	"strings"
)

// ListEncodersArgs returns the arguments that make ffmpeg print its supported
// encoders.
func ListEncodersArgs() []string {
	return []string{"-hide_banner", "-encoders"}
}

// EncoderSet is the set of encoder names a tool build supports.
type EncoderSet struct {
	names map[string]struct{}
}

// ParseEncoders extracts encoder names from `ffmpeg -hide_banner -encoders`
// output. The listing has a legend terminated by a "------" separator; every
// line after it is "FLAGS NAME DESCRIPTION".
func ParseEncoders(output []byte) EncoderSet {
	set := EncoderSet{names: make(map[string]struct{})}

	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	inTable := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inTable {
			if strings.HasPrefix(line, "------") {
				inTable = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		set.names[fields[1]] = struct{}{}
	}

	return set
}

// Has reports whether the set contains the named encoder.
func (s EncoderSet) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Len returns the number of parsed encoders.
func (s EncoderSet) Len() int {
	return len(s.names)
}
