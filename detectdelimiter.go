package geopipe

import (
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// delimiterPreference orders the delimiters we are willing to accept from the
// detector. It reports candidates in no particular order.
var delimiterPreference = []rune{'\t', ',', ';', '|'}

// DetermineDelimiter returns the most likely rune that would delimit the values
// in the reader, assuming a CSV-like file. fallback wins whenever the detector
// considers it a candidate, and is also returned if nothing usable stands out.
func DetermineDelimiter(r io.Reader, fallback rune) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	candidates := make(map[rune]struct{})
	for _, delim := range delimiters {
		if len(delim) == 1 {
			candidates[rune(delim[0])] = struct{}{}
		}
	}

	if _, exists := candidates[fallback]; exists {
		return fallback
	}

	for _, delim := range delimiterPreference {
		if _, exists := candidates[delim]; exists {
			return delim
		}
	}

	return fallback
}
