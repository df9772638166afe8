// Package quote holds the quote-form inputs: field validation and the
// per-tab draft/commit state machine.
package quote

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/chid93/next-gen-prf/internal/model"
)

// Validation messages.
const (
	MsgNoDecimals = "No Decimals"
	MsgRequired   = "Required"
)

var printer = message.NewPrinter(language.English)

// Validate checks raw input against max. Rules apply in order and the
// first failure wins: a decimal point, a leading integer above max, then
// empty input.
func Validate(raw string, max int64, unit string) model.FieldError {
	if strings.Contains(raw, ".") {
		return model.Fail(MsgNoDecimals)
	}
	if exceeds(raw, max) {
		return model.Fail(MaxMessage(max, unit))
	}
	if raw == "" {
		return model.Fail(MsgRequired)
	}
	return model.NoError
}

// MaxMessage renders the limit message with English digit grouping, so
// 200000 reads "Max 200,000".
func MaxMessage(max int64, unit string) string {
	return printer.Sprintf("Max %d%s", max, unit)
}

// exceeds reports whether the integer prefix of raw is greater than max.
// Leading whitespace and one sign are accepted; parsing stops at the first
// non-digit. Input without a leading integer never exceeds. Values too
// large for int64 always exceed a non-negative max.
func exceeds(raw string, max int64) bool {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	var n int64
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		digits++
		if neg {
			continue
		}
		d := int64(r - '0')
		if n > (max-d)/10 {
			return true
		}
		n = n*10 + d
	}
	if digits == 0 || neg {
		return false
	}
	return n > max
}
