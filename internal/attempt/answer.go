package attempt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arjunpat/mathrise/internal/content"
)

// CheckAnswer compares a submitted answer against a problem's canonical
// answers. It returns whether the answer is correct, or an error when
// the submission is not well-formed for the problem's answer type.
//
// Normalization rules:
// - Whitespace is trimmed, comparison is case-insensitive
// - Integers: leading zeros are ignored ("007" matches "7")
// - Decimals: trailing zeros are ignored ("3.50" matches "3.5")
// - Fractions: equivalent fractions are accepted ("2/4" matches "1/2")
// - Choice: a 1-based index into the problem's choices
func CheckAnswer(submitted string, p *content.Problem) (bool, error) {
	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return false, fmt.Errorf("empty answer")
	}

	if p.AnswerType == content.AnswerChoice {
		return checkChoice(submitted, p)
	}

	normalized, err := normalizeAnswer(submitted, p.AnswerType)
	if err != nil {
		return false, err
	}
	for _, canonical := range p.Answers {
		nc, err := normalizeAnswer(canonical, p.AnswerType)
		if err != nil {
			// Bad reference data; treat this canonical form as text.
			nc = strings.ToLower(strings.TrimSpace(canonical))
		}
		if normalized == nc {
			return true, nil
		}
	}
	return false, nil
}

func checkChoice(submitted string, p *content.Problem) (bool, error) {
	idx, err := strconv.Atoi(submitted)
	if err != nil {
		return false, fmt.Errorf("choice answer must be a 1-based index: %q", submitted)
	}
	if idx < 1 || idx > len(p.Choices) {
		return false, fmt.Errorf("choice index %d out of range 1-%d", idx, len(p.Choices))
	}

	chosen := strings.TrimSpace(p.Choices[idx-1])
	for _, canonical := range p.Answers {
		if strings.EqualFold(chosen, strings.TrimSpace(canonical)) {
			return true, nil
		}
	}
	return false, nil
}

func normalizeAnswer(answer string, at content.AnswerType) (string, error) {
	answer = strings.TrimSpace(answer)

	switch at {
	case content.AnswerInteger:
		n, err := strconv.ParseInt(answer, 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid integer: %q", answer)
		}
		return strconv.FormatInt(n, 10), nil

	case content.AnswerDecimal:
		f, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return "", fmt.Errorf("invalid decimal: %q", answer)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil

	case content.AnswerFraction:
		num, den, err := parseFraction(answer)
		if err != nil {
			return "", err
		}
		if den == 0 {
			return "", fmt.Errorf("zero denominator: %q", answer)
		}
		// Negative sign on the numerator only.
		if den < 0 {
			num = -num
			den = -den
		}
		g := gcd(abs(num), den)
		return fmt.Sprintf("%d/%d", num/g, den/g), nil

	default:
		return strings.ToLower(answer), nil
	}
}

func parseFraction(s string) (num, den int64, err error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		// A bare integer is the fraction n/1.
		n, perr := strconv.ParseInt(s, 10, 64)
		if perr != nil {
			return 0, 0, fmt.Errorf("invalid fraction: %q", s)
		}
		return n, 1, nil
	}
	num, err = strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid fraction numerator: %q", s)
	}
	den, err = strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid fraction denominator: %q", s)
	}
	return num, den, nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
