package models

import (
	"fmt"
	"regexp"
	"strings"
)

var monthBoundRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// DateRange is an optional inclusive month range. Bounds are "YYYY-MM";
// an empty bound is open.
type DateRange struct {
	From string
	To   string
}

// Enabled reports whether at least one bound is set.
func (r DateRange) Enabled() bool {
	return r.From != "" || r.To != ""
}

// Contains reports whether a "M/YYYY" month falls inside the range.
func (r DateRange) Contains(month string) bool {
	return InRange(month, r.From, r.To)
}

// Validate checks the bound format and ordering.
func (r DateRange) Validate() error {
	for _, b := range []string{r.From, r.To} {
		if b != "" && !monthBoundRe.MatchString(b) {
			return fmt.Errorf("invalid month %q: expected YYYY-MM", b)
		}
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return fmt.Errorf("invalid range: %s is after %s", r.From, r.To)
	}
	return nil
}

// String renders the range for logs and history.
func (r DateRange) String() string {
	if !r.Enabled() {
		return "all"
	}
	from, to := r.From, r.To
	if from == "" {
		from = "…"
	}
	if to == "" {
		to = "…"
	}
	return from + ".." + to
}

// NormalizeMonth converts "M/YYYY" into "YYYY-MM". ok is false unless the
// input is exactly two non-empty runs of ASCII digits separated by a slash.
func NormalizeMonth(month string) (normalized string, ok bool) {
	parts := strings.Split(month, "/")
	if len(parts) != 2 || !isDigits(parts[0]) || !isDigits(parts[1]) {
		return "", false
	}
	m := parts[0]
	if len(m) < 2 {
		m = strings.Repeat("0", 2-len(m)) + m
	}
	return parts[1] + "-" + m, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// InRange reports whether month ("M/YYYY") lies within the inclusive
// [from, to] range of "YYYY-MM" bounds. Empty bounds are open. Malformed
// months are treated as in range so that data is never dropped silently.
func InRange(month, from, to string) bool {
	if from == "" && to == "" {
		return true
	}

	normalized, ok := NormalizeMonth(month)
	if !ok {
		return true
	}

	if from != "" && normalized < from {
		return false
	}
	if to != "" && normalized > to {
		return false
	}
	return true
}
