package fullbay

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The Fullbay API is loosely typed: money comes back as numbers or strings
// (sometimes with currency symbols), booleans as "Yes"/"No", and ids as
// numbers or numeric strings. These wrapper types coerce everything once at
// the decode boundary so the flattening logic only sees clean Go values.

// Money is a monetary or numeric amount. Malformed values decode to 0
// rather than failing the whole document.
type Money float64

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*m = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*m = 0
			return nil
		}
		*m = Money(parseMoneyString(s))
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*m = 0
		return nil
	}
	*m = Money(f)
	return nil
}

// Float64 returns the amount as a plain float64.
func (m Money) Float64() float64 { return float64(m) }

func parseMoneyString(s string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// YesNo is a boolean decoded from the API's "Yes"/"No" convention.
// Anything other than an affirmative value decodes to false.
type YesNo bool

// UnmarshalJSON implements json.Unmarshaler.
func (y *YesNo) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*y = true
		return nil
	case "false", "null", "":
		*y = false
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*y = false
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "on":
		*y = true
	default:
		*y = false
	}
	return nil
}

// Bool returns the flag as a plain bool.
func (y YesNo) Bool() bool { return bool(y) }

// TaxableFlag is the correction-level taxable flag. Unlike YesNo it
// defaults to true: a correction is taxable unless the API explicitly
// says "No". The zero value reports true so an absent field also means
// taxable.
type TaxableFlag struct {
	no bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TaxableFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "false":
		t.no = true
		return nil
	case "true", "null", "":
		t.no = false
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.no = false
		return nil
	}
	t.no = strings.EqualFold(strings.TrimSpace(s), "no")
	return nil
}

// Bool returns the flag as a plain bool.
func (t TaxableFlag) Bool() bool { return !t.no }

// IntString is an integer decoded from a JSON number or a numeric string.
// Malformed values decode to 0.
type IntString int64

// UnmarshalJSON implements json.Unmarshaler.
func (i *IntString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*i = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*i = 0
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*i = 0
			return nil
		}
		*i = IntString(int64(f))
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*i = 0
		return nil
	}
	*i = IntString(int64(f))
	return nil
}

// Int64 returns the value as a plain int64.
func (i IntString) Int64() int64 { return int64(i) }

// ID is an opaque identifier decoded from a JSON string or number.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*id = ""
			return nil
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}

	// Numbers keep their literal representation ("910179", not "910179.00").
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*id = ""
		return nil
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as a plain string.
func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is absent.
func (id ID) IsZero() bool { return id == "" }
