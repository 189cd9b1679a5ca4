// Package validate implements the declarative field validation framework:
// typed rules that check and coerce raw JSON values, and schemas that
// assemble rules into per-request validated results.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// Kind classifies a validation failure.
type Kind int

const (
	// KindMissingRequired means a required field was absent or null.
	KindMissingRequired Kind = iota
	// KindNonNullable means a non-nullable field was absent or null.
	KindNonNullable
	// KindTypeMismatch means the raw value has the wrong JSON type.
	KindTypeMismatch
	// KindFormat means the value fails a format check (phone, date, email).
	KindFormat
	// KindRange means the value is outside the allowed set or range.
	KindRange
	// KindInsufficient means a cross-field invariant failed.
	KindInsufficient
)

// Error is a validation failure with a user-safe reason. Field is empty for
// cross-field invariant failures.
type Error struct {
	Field  string
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

type checkFunc func(raw interface{}) (interface{}, *Error)

// Rule is a single validation and coercion unit. Rules are immutable values
// declared once per schema; coerced results never live on the rule itself.
type Rule struct {
	required bool
	nullable bool
	check    checkFunc
}

// Required marks the field as mandatory in the raw input.
func (r Rule) Required() Rule {
	r.required = true
	return r
}

// NonNullable forbids an absent or null value even for optional fields.
func (r Rule) NonNullable() Rule {
	r.nullable = false
	return r
}

// CheckAndCoerce validates a non-null raw value and returns its coerced
// form. Absent/null handling is the schema's job, not the rule's.
func (r Rule) CheckAndCoerce(raw interface{}) (interface{}, *Error) {
	return r.check(raw)
}

// Char accepts any string and keeps it as-is.
func Char() Rule {
	return Rule{nullable: true, check: func(raw interface{}) (interface{}, *Error) {
		s, ok := raw.(string)
		if !ok {
			return nil, &Error{Kind: KindTypeMismatch, Reason: "must be a string"}
		}
		return s, nil
	}}
}

// Arguments accepts a JSON object and keeps it as a map.
func Arguments() Rule {
	return Rule{nullable: true, check: func(raw interface{}) (interface{}, *Error) {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, &Error{Kind: KindTypeMismatch, Reason: "must be an object"}
		}
		return m, nil
	}}
}

// Email accepts a string containing an "@".
func Email() Rule {
	return Rule{nullable: true, check: func(raw interface{}) (interface{}, *Error) {
		s, ok := raw.(string)
		if !ok {
			return nil, &Error{Kind: KindTypeMismatch, Reason: "must be a string"}
		}
		for _, c := range s {
			if c == '@' {
				return s, nil
			}
		}
		return nil, &Error{Kind: KindFormat, Reason: "is not a valid email address"}
	}}
}

var phonePattern = regexp.MustCompile(`^7\d{10}$`)

// Phone accepts a string or an integer whose decimal form is exactly eleven
// digits with a leading 7, and coerces it to a string.
func Phone() Rule {
	return Rule{nullable: true, check: func(raw interface{}) (interface{}, *Error) {
		var s string
		switch v := raw.(type) {
		case string:
			s = v
		default:
			n, ok := asInt64(raw)
			if !ok {
				return nil, &Error{Kind: KindTypeMismatch, Reason: "must be a string or an integer"}
			}
			s = strconv.FormatInt(n, 10)
		}
		if !phonePattern.MatchString(s) {
			return nil, &Error{Kind: KindFormat, Reason: "is not a valid phone number"}
		}
		return s, nil
	}}
}

const dateLayout = "02.01.2006"

// Date accepts a DD.MM.YYYY string naming a real calendar date and coerces
// it to a time.Time.
func Date() Rule {
	return Rule{nullable: true, check: checkDate}
}

func checkDate(raw interface{}) (interface{}, *Error) {
	s, ok := raw.(string)
	if !ok {
		return nil, &Error{Kind: KindTypeMismatch, Reason: "must be a string"}
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, &Error{Kind: KindFormat, Reason: "must be a date in DD.MM.YYYY format"}
	}
	return d, nil
}

// ageLimit is the maximum accepted age for a birthday, expressed the way
// the wire contract defines it: 70 mean Gregorian years.
var ageLimit = time.Duration(70 * 365.2425 * 24 * float64(time.Hour))

// timeNow is swapped out in tests.
var timeNow = time.Now

// BirthDay is Date plus an upper bound on age.
func BirthDay() Rule {
	return Rule{nullable: true, check: func(raw interface{}) (interface{}, *Error) {
		coerced, verr := checkDate(raw)
		if verr != nil {
			return nil, verr
		}
		d := coerced.(time.Time)
		if timeNow().Sub(d) > ageLimit {
			return nil, &Error{Kind: KindRange, Reason: "age limit exceeded"}
		}
		return d, nil
	}}
}

// Gender accepts the integers 0, 1 or 2 and coerces them to their decimal
// string form, which is what existing consumers expect on the wire.
func Gender() Rule {
	return Rule{nullable: true, check: func(raw interface{}) (interface{}, *Error) {
		n, ok := asInt64(raw)
		if !ok {
			return nil, &Error{Kind: KindTypeMismatch, Reason: "must be an integer"}
		}
		if n < 0 || n > 2 {
			return nil, &Error{Kind: KindRange, Reason: "must be 0, 1 or 2"}
		}
		return strconv.FormatInt(n, 10), nil
	}}
}

// ClientIDs accepts a non-empty list of integers and coerces it to []int64.
func ClientIDs() Rule {
	return Rule{nullable: true, check: func(raw interface{}) (interface{}, *Error) {
		list, ok := raw.([]interface{})
		if !ok {
			return nil, &Error{Kind: KindTypeMismatch, Reason: "must be a list"}
		}
		if len(list) == 0 {
			return nil, &Error{Kind: KindRange, Reason: "must not be empty"}
		}
		ids := make([]int64, 0, len(list))
		for _, item := range list {
			n, ok := asInt64(item)
			if !ok {
				return nil, &Error{Kind: KindTypeMismatch, Reason: "must contain only integers"}
			}
			ids = append(ids, n)
		}
		return ids, nil
	}}
}

// asInt64 reads an integer out of the shapes a JSON decoder may produce.
// Floats with a fractional part are rejected; booleans are never integers.
func asInt64(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
