package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Canonical yes/no values.
const (
	Yes = "yes"
	No  = "no"
)

// stepEpsilon absorbs float rounding when checking scale steps.
const stepEpsilon = 1e-9

// Coerce converts a raw value (typically decoded JSON) into the canonical
// representation for the field type:
//
//	yesno           "yes" | "no"
//	radio           one of Options
//	checkbox        []string, subset of Options in option order
//	numeric, scale  float64
//	text, textarea  string
//
// Blank answers (nil, "", no options picked) come back as nil.
func Coerce(f Field, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	var (
		out any
		err error
	)
	switch f.Type {
	case TypeYesNo:
		out, err = coerceYesNo(value)
	case TypeRadio:
		out, err = coerceRadio(f, value)
	case TypeCheckbox:
		out, err = coerceCheckbox(f, value)
	case TypeNumeric:
		out, err = coerceNumeric(f, value)
	case TypeScale:
		out, err = coerceScale(f, value)
	case TypeText:
		out, err = coerceText(value, MaxTextLength)
	case TypeTextarea:
		out, err = coerceText(value, MaxTextareaLength)
	default:
		err = ErrInvalidType
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidValue, f.ID, err)
	}
	if IsEmpty(out) {
		return nil, nil
	}
	return out, nil
}

// IsEmpty reports whether a value counts as unanswered. Zero is an answer.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}

func coerceYesNo(value any) (string, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return Yes, nil
		}
		return No, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "true", "y":
			return Yes, nil
		case "no", "false", "n":
			return No, nil
		case "":
			return "", nil
		}
	}
	return "", fmt.Errorf("expected yes or no, got %v", value)
}

func coerceRadio(f Field, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected a string option, got %T", value)
	}
	if s == "" {
		return "", nil
	}
	for _, opt := range f.Options {
		if opt == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("%q is not an option", s)
}

func coerceCheckbox(f Field, value any) ([]string, error) {
	var picked []string
	switch v := value.(type) {
	case []string:
		picked = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string options, got %T", item)
			}
			picked = append(picked, s)
		}
	case string:
		if v != "" {
			picked = []string{v}
		}
	default:
		return nil, fmt.Errorf("expected a list of options, got %T", value)
	}

	chosen := make(map[string]bool, len(picked))
	for _, s := range picked {
		if !containsString(f.Options, s) {
			return nil, fmt.Errorf("%q is not an option", s)
		}
		chosen[s] = true
	}
	out := make([]string, 0, len(chosen))
	for _, opt := range f.Options {
		if chosen[opt] {
			out = append(out, opt)
		}
	}
	return out, nil
}

func coerceNumeric(f Field, value any) (any, error) {
	n, empty, err := toFloat(value)
	if err != nil || empty {
		return nil, err
	}
	if err := checkBounds(f, n); err != nil {
		return nil, err
	}
	return n, nil
}

func coerceScale(f Field, value any) (any, error) {
	n, empty, err := toFloat(value)
	if err != nil || empty {
		return nil, err
	}
	if err := checkBounds(f, n); err != nil {
		return nil, err
	}
	step := f.Step
	if step <= 0 {
		step = 1
	}
	var lo float64
	if f.Min != nil {
		lo = *f.Min
	}
	ratio := (n - lo) / step
	if math.Abs(ratio-math.Round(ratio)) > stepEpsilon {
		return nil, fmt.Errorf("%v is not a multiple of step %v", n, step)
	}
	return n, nil
}

func coerceText(value any, max int) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected text, got %T", value)
	}
	if !utf8.ValidString(s) {
		return "", errors.New("text is not valid UTF-8")
	}
	if utf8.RuneCountInString(s) > max {
		return "", fmt.Errorf("text cannot exceed %d characters", max)
	}
	return s, nil
}

func checkBounds(f Field, n float64) error {
	if f.Min != nil && n < *f.Min {
		return fmt.Errorf("%v is below minimum %v", n, *f.Min)
	}
	if f.Max != nil && n > *f.Max {
		return fmt.Errorf("%v is above maximum %v", n, *f.Max)
	}
	return nil
}

// toFloat accepts the number shapes produced by JSON, YAML, and form posts.
// empty is true for a blank string.
func toFloat(value any) (n float64, empty bool, err error) {
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		n, err = v.Float64()
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, true, nil
		}
		n, err = strconv.ParseFloat(s, 64)
	default:
		return 0, false, fmt.Errorf("expected a number, got %T", value)
	}
	if err != nil {
		return 0, false, fmt.Errorf("expected a number: %w", err)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false, fmt.Errorf("expected a finite number")
	}
	return n, false, nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
