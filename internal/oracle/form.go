package oracle

import "strings"

// Field names an input the user fills in.
type Field string

// Input fields.
const (
	FieldFee         Field = "fee"
	FieldTTL         Field = "ttl"
	FieldAddress     Field = "address"
	FieldQuestion    Field = "question"
	FieldAnswer      Field = "answer"
	FieldQueryID     Field = "query_id"
	FieldQueryTTL    Field = "query_ttl"
	FieldResponseTTL Field = "response_ttl"
	FieldValue       Field = "value"
)

// Usage returns the help text for a field.
func (f Field) Usage() string {
	switch f {
	case FieldFee:
		return "oracle query fee"
	case FieldTTL:
		return "relative TTL in blocks"
	case FieldAddress:
		return "oracle address"
	case FieldQuestion:
		return "question text"
	case FieldAnswer:
		return "answer text"
	case FieldQueryID:
		return "query id (bytes32 hex)"
	case FieldQueryTTL:
		return "query TTL in blocks"
	case FieldResponseTTL:
		return "response TTL in blocks"
	case FieldValue:
		return "value to attach, in wei"
	}
	return string(f)
}

// Output names a value shown to the user after an action.
type Output string

// Output fields.
const (
	OutMessage Output = "message"
	OutAddress Output = "address"
	OutResult  Output = "result"
	OutBalance Output = "balance"
	OutFee     Output = "fee"
	OutQueryID Output = "query_id"
	OutAnswer  Output = "answer"
	OutTx      Output = "tx"
)

// Form holds the input values at the moment an action runs.
type Form map[Field]string

// Get returns the value of f. Text fields keep their whitespace.
func (fm Form) Get(f Field) string {
	v := fm[f]
	if f == FieldQuestion || f == FieldAnswer {
		return v
	}
	return strings.TrimSpace(v)
}

// GetOr returns the value of f, or def when it is blank.
func (fm Form) GetOr(f Field, def string) string {
	if v := fm.Get(f); v != "" {
		return v
	}
	return def
}

// Display holds the output values an action produced.
type Display map[Output]string

// Pairs returns the display values in the order given, skipping unset ones.
func (d Display) Pairs(order []Output) [][2]string {
	pairs := make([][2]string, 0, len(order))
	for _, o := range order {
		if v, ok := d[o]; ok {
			pairs = append(pairs, [2]string{string(o), v})
		}
	}
	return pairs
}
