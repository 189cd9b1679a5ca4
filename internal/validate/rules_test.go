package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharRule(t *testing.T) {
	coerced, verr := Char().CheckAndCoerce("hello")
	require.Nil(t, verr)
	assert.Equal(t, "hello", coerced)

	for _, raw := range []interface{}{1, 1.5, true, []interface{}{}, map[string]interface{}{}} {
		_, verr := Char().CheckAndCoerce(raw)
		require.NotNil(t, verr, "raw %v", raw)
		assert.Equal(t, KindTypeMismatch, verr.Kind)
	}
}

func TestArgumentsRule(t *testing.T) {
	raw := map[string]interface{}{"phone": "79175002040"}
	coerced, verr := Arguments().CheckAndCoerce(raw)
	require.Nil(t, verr)
	assert.Equal(t, raw, coerced)

	_, verr = Arguments().CheckAndCoerce([]interface{}{"not", "a", "map"})
	require.NotNil(t, verr)
	assert.Equal(t, KindTypeMismatch, verr.Kind)
}

func TestEmailRule(t *testing.T) {
	coerced, verr := Email().CheckAndCoerce("stupnikov@otus.ru")
	require.Nil(t, verr)
	assert.Equal(t, "stupnikov@otus.ru", coerced)

	_, verr = Email().CheckAndCoerce("no-at-sign")
	require.NotNil(t, verr)
	assert.Equal(t, KindFormat, verr.Kind)

	_, verr = Email().CheckAndCoerce(42.0)
	require.NotNil(t, verr)
	assert.Equal(t, KindTypeMismatch, verr.Kind)
}

func TestPhoneRule(t *testing.T) {
	valid := []interface{}{
		"79175002040",
		float64(79175002040), // JSON number form
		int64(79175002040),
	}
	for _, raw := range valid {
		coerced, verr := Phone().CheckAndCoerce(raw)
		require.Nil(t, verr, "raw %v", raw)
		assert.Equal(t, "79175002040", coerced, "raw %v", raw)
	}

	invalid := []struct {
		raw  interface{}
		kind Kind
	}{
		{"89175002040", KindFormat},  // wrong leading digit
		{"7917500204", KindFormat},   // ten digits
		{"791750020400", KindFormat}, // twelve digits
		{"7917500204o", KindFormat},
		{79175002040.5, KindTypeMismatch}, // fractional number
		{true, KindTypeMismatch},
	}
	for _, tc := range invalid {
		_, verr := Phone().CheckAndCoerce(tc.raw)
		require.NotNil(t, verr, "raw %v", tc.raw)
		assert.Equal(t, tc.kind, verr.Kind, "raw %v", tc.raw)
	}
}

func TestDateRule(t *testing.T) {
	coerced, verr := Date().CheckAndCoerce("01.01.2000")
	require.Nil(t, verr)
	assert.True(t, coerced.(time.Time).Equal(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))

	for _, raw := range []string{"2000.01.01", "01-01-2000", "31.02.2000", "XX.01.2000", "1.1.2000", "01.01.2000 extra"} {
		_, verr := Date().CheckAndCoerce(raw)
		require.NotNil(t, verr, "raw %q", raw)
		assert.Equal(t, KindFormat, verr.Kind, "raw %q", raw)
	}

	_, verr = Date().CheckAndCoerce(20000101.0)
	require.NotNil(t, verr)
	assert.Equal(t, KindTypeMismatch, verr.Kind)
}

func TestBirthDayRuleAgeBoundary(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	defer func() { timeNow = time.Now }()

	// The limit is 70*365.2425 days = 25566.975 days: the first whole-day
	// age past it is 25567 days.
	tooOld := now.AddDate(0, 0, -25567)
	_, verr := BirthDay().CheckAndCoerce(tooOld.Format("02.01.2006"))
	require.NotNil(t, verr)
	assert.Equal(t, KindRange, verr.Kind)

	justInside := now.AddDate(0, 0, -25566)
	coerced, verr := BirthDay().CheckAndCoerce(justInside.Format("02.01.2006"))
	require.Nil(t, verr)
	assert.True(t, coerced.(time.Time).Equal(justInside))
}

func TestGenderRule(t *testing.T) {
	for raw, want := range map[float64]string{0: "0", 1: "1", 2: "2"} {
		coerced, verr := Gender().CheckAndCoerce(raw)
		require.Nil(t, verr, "raw %v", raw)
		assert.Equal(t, want, coerced)
	}

	invalid := []struct {
		raw  interface{}
		kind Kind
	}{
		{float64(-1), KindRange},
		{float64(3), KindRange},
		{"1", KindTypeMismatch},
		{1.5, KindTypeMismatch},
		{[]interface{}{1.0}, KindTypeMismatch},
		{true, KindTypeMismatch},
	}
	for _, tc := range invalid {
		_, verr := Gender().CheckAndCoerce(tc.raw)
		require.NotNil(t, verr, "raw %v", tc.raw)
		assert.Equal(t, tc.kind, verr.Kind, "raw %v", tc.raw)
	}
}

func TestClientIDsRule(t *testing.T) {
	coerced, verr := ClientIDs().CheckAndCoerce([]interface{}{1.0, 2.0, 3.0})
	require.Nil(t, verr)
	assert.Equal(t, []int64{1, 2, 3}, coerced)

	_, verr = ClientIDs().CheckAndCoerce([]interface{}{})
	require.NotNil(t, verr)
	assert.Equal(t, KindRange, verr.Kind)

	_, verr = ClientIDs().CheckAndCoerce([]interface{}{1.0, "2"})
	require.NotNil(t, verr)
	assert.Equal(t, KindTypeMismatch, verr.Kind)

	_, verr = ClientIDs().CheckAndCoerce(map[string]interface{}{"1": 1.0})
	require.NotNil(t, verr)
	assert.Equal(t, KindTypeMismatch, verr.Kind)
}
