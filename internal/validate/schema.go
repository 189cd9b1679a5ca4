package validate

import "time"

// Field names a rule inside a schema.
type Field struct {
	Name string
	Rule Rule
}

// F is shorthand for declaring a schema field.
func F(name string, rule Rule) Field {
	return Field{Name: name, Rule: rule}
}

// Invariant is a cross-field check run after all fields validated.
type Invariant func(*Result) *Error

// Schema is an ordered set of named rules plus an optional cross-field
// invariant. A schema is declared once and shared by all requests; every
// Decode call produces a fresh Result so concurrent requests never share
// validation state.
type Schema struct {
	fields    []Field
	invariant Invariant
}

// NewSchema declares a schema from its fields.
func NewSchema(fields ...Field) *Schema {
	return &Schema{fields: fields}
}

// WithInvariant attaches a cross-field invariant and returns the schema.
func (s *Schema) WithInvariant(inv Invariant) *Schema {
	s.invariant = inv
	return s
}

// Result holds the coerced values of one decoded request. Values that were
// absent or null simply have no entry.
type Result struct {
	schema  *Schema
	values  map[string]interface{}
	present map[string]struct{}
}

// Decode validates a raw mapping against the schema. Fields are processed
// in declaration order; the first failure wins. The invariant runs only
// after every field has passed.
func (s *Schema) Decode(raw map[string]interface{}) (*Result, error) {
	res := &Result{
		schema:  s,
		values:  make(map[string]interface{}, len(s.fields)),
		present: make(map[string]struct{}, len(s.fields)),
	}

	for _, f := range s.fields {
		rawVal, supplied := raw[f.Name]
		if supplied {
			res.present[f.Name] = struct{}{}
		}

		if !supplied || rawVal == nil {
			if f.Rule.required {
				return nil, &Error{Field: f.Name, Kind: KindMissingRequired, Reason: "field is mandatory"}
			}
			if !f.Rule.nullable {
				return nil, &Error{Field: f.Name, Kind: KindNonNullable, Reason: "field must not be null"}
			}
			continue
		}

		coerced, verr := f.Rule.CheckAndCoerce(rawVal)
		if verr != nil {
			verr.Field = f.Name
			return nil, verr
		}
		res.values[f.Name] = coerced
	}

	if s.invariant != nil {
		if verr := s.invariant(res); verr != nil {
			verr.Kind = KindInsufficient
			return nil, verr
		}
	}
	return res, nil
}

// Has reports whether the field was supplied in the raw input, even as an
// explicit null.
func (r *Result) Has(name string) bool {
	_, ok := r.present[name]
	return ok
}

// Present returns the supplied field names in schema declaration order.
func (r *Result) Present() []string {
	names := make([]string, 0, len(r.present))
	for _, f := range r.schema.fields {
		if _, ok := r.present[f.Name]; ok {
			names = append(names, f.Name)
		}
	}
	return names
}

// Value returns the coerced value, or nil when the field was absent/null.
func (r *Result) Value(name string) interface{} {
	return r.values[name]
}

// String returns the coerced string value, or "" when absent.
func (r *Result) String(name string) string {
	s, _ := r.values[name].(string)
	return s
}

// Map returns the coerced object value, or nil when absent.
func (r *Result) Map(name string) map[string]interface{} {
	m, _ := r.values[name].(map[string]interface{})
	return m
}

// Time returns the coerced date value and whether it was set.
func (r *Result) Time(name string) (time.Time, bool) {
	t, ok := r.values[name].(time.Time)
	return t, ok
}

// Int64s returns the coerced integer list value, or nil when absent.
func (r *Result) Int64s(name string) []int64 {
	ids, _ := r.values[name].([]int64)
	return ids
}
