package httpclient

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// StatusCodeRange represents a range of HTTP status codes (inclusive).
type StatusCodeRange struct {
	Min int
	Max int
}

// Contains returns true if the code falls within this range.
func (r StatusCodeRange) Contains(code int) bool {
	return code >= r.Min && code <= r.Max
}

// String renders the range as "200-299", or "404" for a single code.
func (r StatusCodeRange) String() string {
	if r.Min == r.Max {
		return strconv.Itoa(r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// StatusCodeSet is a set of HTTP status codes used to decide whether a
// response counts as the expected outcome.
//
// Example formats:
//   - "200" - single code
//   - "200,404" - multiple codes
//   - "200-299" - range (inclusive)
//   - "401-999" - anything that rejects the request
type StatusCodeSet struct {
	ranges []StatusCodeRange
}

// ParseStatusCodes parses a string like "200-299,404,500-599" into a StatusCodeSet.
// Returns nil if the input is empty.
func ParseStatusCodes(s string) (*StatusCodeSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	set := &StatusCodeSet{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			code, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid status code %q: %w", part, err)
			}
			if !validStatus(code) {
				return nil, fmt.Errorf("invalid HTTP status code %d: must be 100-999", code)
			}
			set.Add(code)
			continue
		}

		minCode, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid range start %q: %w", lo, err)
		}
		maxCode, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid range end %q: %w", hi, err)
		}
		if minCode > maxCode {
			return nil, fmt.Errorf("invalid range %d-%d: min > max", minCode, maxCode)
		}
		if !validStatus(minCode) || !validStatus(maxCode) {
			return nil, fmt.Errorf("invalid HTTP status code range %d-%d: must be 100-999", minCode, maxCode)
		}
		set.AddRange(minCode, maxCode)
	}

	if set.IsEmpty() {
		return nil, nil
	}
	return set, nil
}

// MustParseStatusCodes is like ParseStatusCodes but panics on error.
// Use only for compile-time constants.
func MustParseStatusCodes(s string) *StatusCodeSet {
	set, err := ParseStatusCodes(s)
	if err != nil {
		panic(err)
	}
	return set
}

// validStatus accepts any three-digit code, as net/http does.
func validStatus(code int) bool {
	return code >= 100 && code <= 999
}

// Add adds an individual status code to the set.
func (s *StatusCodeSet) Add(code int) {
	s.AddRange(code, code)
}

// AddRange adds a range of status codes to the set.
func (s *StatusCodeSet) AddRange(minCode, maxCode int) {
	s.ranges = append(s.ranges, StatusCodeRange{Min: minCode, Max: maxCode})
}

// Contains returns true if the status code is in the set.
// A nil set contains nothing.
func (s *StatusCodeSet) Contains(code int) bool {
	if s == nil {
		return false
	}
	for _, r := range s.ranges {
		if r.Contains(code) {
			return true
		}
	}
	return false
}

// IsEmpty returns true if the set has no codes or ranges.
func (s *StatusCodeSet) IsEmpty() bool {
	return s == nil || len(s.ranges) == 0
}

// String returns the set in the same syntax ParseStatusCodes accepts,
// ordered by range start.
func (s *StatusCodeSet) String() string {
	if s.IsEmpty() {
		return ""
	}

	sorted := slices.Clone(s.ranges)
	slices.SortFunc(sorted, func(a, b StatusCodeRange) int { return a.Min - b.Min })

	parts := make([]string, 0, len(sorted))
	for _, r := range sorted {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ",")
}

// Default2xxStatusCodes returns a StatusCodeSet containing all 2xx status codes.
func Default2xxStatusCodes() *StatusCodeSet {
	return MustParseStatusCodes("200-299")
}
