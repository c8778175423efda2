// Package conversation parses short user answers (yes/no, numbered
// selections) and delivers notifications to the terminal.
package conversation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hammamikhairi/grocery/internal/domain"
)

// Answer is the meaning of a reply to a yes/no question.
type Answer int

const (
	// AnswerUnknown means the reply was not recognized.
	AnswerUnknown Answer = iota
	// AnswerYes is y or yes in any case.
	AnswerYes
	// AnswerNo is n or no in any case.
	AnswerNo
)

func (a Answer) String() string {
	switch a {
	case AnswerYes:
		return "yes"
	case AnswerNo:
		return "no"
	}
	return "unknown"
}

type answerRule struct {
	regex  *regexp.Regexp
	answer Answer
}

var answerRules = []answerRule{
	{regexp.MustCompile(`(?i)^(y|yes)$`), AnswerYes},
	{regexp.MustCompile(`(?i)^(n|no)$`), AnswerNo},
}

// ParseAnswer classifies a yes/no reply. Surrounding whitespace is ignored.
func ParseAnswer(input string) Answer {
	trimmed := strings.TrimSpace(input)
	for _, rule := range answerRules {
		if rule.regex.MatchString(trimmed) {
			return rule.answer
		}
	}
	return AnswerUnknown
}

// ParseSelection turns a reply such as "1, 3 4", "2-4" or "all" into
// sorted, deduplicated 0-based indices into a list of n items. A blank
// reply selects nothing. Numbers outside 1..n yield an error wrapping
// domain.ErrIndexOutOfRange; anything else unparsable wraps
// domain.ErrInvalidSelection.
func ParseSelection(input string, n int) ([]int, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}
	if strings.EqualFold(trimmed, "all") {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	seen := make(map[int]bool)
	fields := strings.FieldsFunc(trimmed, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	for _, f := range fields {
		lo, hi, err := parseRange(f)
		if err != nil {
			return nil, err
		}
		for i := lo; i <= hi; i++ {
			if i < 1 || i > n {
				return nil, &domain.IndexError{Index: i - 1, Len: n}
			}
			seen[i-1] = true
		}
	}

	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// parseRange accepts "3" or "2-4".
func parseRange(f string) (int, int, error) {
	a, b, isRange := strings.Cut(f, "-")
	if !isDigits(a) || (isRange && !isDigits(b)) {
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidSelection, f)
	}
	lo, _ := strconv.Atoi(a)
	hi := lo
	if isRange {
		hi, _ = strconv.Atoi(b)
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidSelection, f)
	}
	return lo, hi, nil
}

// ParseIndex parses a single 1-based index from user input and returns
// it 0-based. Range checking is left to the caller.
func ParseIndex(input string) (int, error) {
	trimmed := strings.TrimSpace(input)
	if !isDigits(trimmed) {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidSelection, input)
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidSelection, err)
	}
	return n - 1, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
