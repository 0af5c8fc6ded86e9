package collect

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrPovShape: the middle segment of a pov filename has no non-digit
	// run or no digit run.
	ErrPovShape = errors.New("unrecognized pov filename shape")
	// ErrTraceShape: the middle segment of a trace filename does not split
	// into 2 or 4 dash-separated parts.
	ErrTraceShape = errors.New("unrecognized trace filename shape")
	// ErrInvalidJSON: an input file is not a valid JSON document.
	ErrInvalidJSON = errors.New("invalid json")
)

// Separator splits transmitter and receiver ids in trace filenames.
const Separator = "-"

var (
	nonDigits = regexp.MustCompile(`\D+`)
	digits    = regexp.MustCompile(`\d+`)
)

// middle returns the second dot-delimited field of the base name,
// "Rx01" for "qcmPov.Rx01.json".
func middle(name string) string {
	parts := strings.Split(filepath.Base(name), ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// ParsePov maps qcmPov.<type><id>.json to group <type>, member <id>.
// Type and id are the first maximal non-digit and digit runs.
func ParsePov(name string) (Entry, error) {
	seg := middle(name)
	typ := nonDigits.FindString(seg)
	id := digits.FindString(seg)
	if typ == "" || id == "" {
		return Entry{}, fmt.Errorf("%s: %w", name, ErrPovShape)
	}
	return Entry{Key: Key{Family: Pov, Group: typ}, Member: id}, nil
}

// ParseTrace maps qcmTrace.<tx>-<rx>.json to group <tx>, member <rx>.
// Ids may contain the separator themselves (Tx-01-Rx-04), in which case
// the four parts are joined pairwise.
func ParseTrace(name string) (Entry, error) {
	parts := strings.Split(middle(name), Separator)
	var tx, rx string
	switch len(parts) {
	case 2:
		tx, rx = parts[0], parts[1]
	case 4:
		tx = strings.Join(parts[0:2], Separator)
		rx = strings.Join(parts[2:4], Separator)
	default:
		return Entry{}, fmt.Errorf("%s: %d parts: %w", name, len(parts), ErrTraceShape)
	}
	if tx == "" || rx == "" {
		return Entry{}, fmt.Errorf("%s: empty id: %w", name, ErrTraceShape)
	}
	return Entry{Key: Key{Family: Trace, Group: tx}, Member: rx}, nil
}
