// Package field describes the structured-data slots a template embeds through
// data-field-* attributes, and how they are typed and validated.
package field

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// Attributes read from template markup.
const (
	AttrID        = "data-field-id"
	AttrName      = "data-field-name"
	AttrDataType  = "data-field-data-type"
	AttrStartFrom = "data-field-data-start-from"
)

// DataType names the variant carried by a field.
type DataType string

const (
	TypeNone      DataType = ""
	TypeIncrement DataType = "increment"
)

// Data is the typed payload of a field. The set of implementations is closed:
// None, Increment and Unknown.
type Data interface {
	Type() DataType
	isData()
}

// None is a field without structured data.
type None struct{}

func (None) Type() DataType { return TypeNone }
func (None) isData()        {}

// Increment is an auto-incrementing counter.
type Increment struct {
	// StartFrom is the first value of the counter. Only meaningful when Numeric is true.
	StartFrom int `validate:"gte=0"`

	// Raw is the start-from attribute exactly as written.
	Raw string

	// Numeric reports whether Raw parsed as an integer.
	Numeric bool
}

func (Increment) Type() DataType { return TypeIncrement }
func (Increment) isData()        {}

// Unknown preserves a data type this package does not recognise, so callers
// can report it instead of losing it.
type Unknown struct {
	RawType      string
	RawStartFrom string
}

func (u Unknown) Type() DataType { return DataType(u.RawType) }
func (Unknown) isData()          {}

// ParseData maps the raw type and start-from attribute values onto a Data variant.
// It never fails: anything it cannot interpret is carried through verbatim.
func ParseData(dataType, startFrom string) Data {
	switch DataType(dataType) {
	case TypeNone:
		return None{}
	case TypeIncrement:
		n, ok := parseCount(startFrom)
		return Increment{StartFrom: n, Raw: startFrom, Numeric: ok}
	default:
		return Unknown{RawType: dataType, RawStartFrom: startFrom}
	}
}

// parseCount accepts integers and integral decimals ("5", " 7 ", "3.0").
func parseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// Definition is one editable slot discovered in a template.
type Definition struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
	Data Data   `validate:"-"`
}

// Type returns the data type of the definition, treating nil Data as None.
func (d Definition) Type() DataType {
	if d.Data == nil {
		return TypeNone
	}
	return d.Data.Type()
}

// FromAttributes builds a Definition from an element's attributes.
// The second return value is false when the element carries no field id.
func FromAttributes(attrs []html.Attribute) (Definition, bool) {
	var (
		id, name, dataType, startFrom string
		found                         bool
	)
	for _, a := range attrs {
		switch a.Key {
		case AttrID:
			id, found = a.Val, true
		case AttrName:
			name = a.Val
		case AttrDataType:
			dataType = a.Val
		case AttrStartFrom:
			startFrom = a.Val
		}
	}
	if !found {
		return Definition{}, false
	}
	return Definition{
		ID:   id,
		Name: name,
		Data: ParseData(dataType, startFrom),
	}, true
}

// dataDoc is the serialized form of Data. StartFrom is a number for numeric
// counters and the raw string otherwise.
type dataDoc struct {
	Type      string `json:"type" yaml:"type"`
	StartFrom any    `json:"startFrom,omitempty" yaml:"startFrom,omitempty"`
}

type definitionDoc struct {
	ID   string  `json:"id" yaml:"id"`
	Name string  `json:"name" yaml:"name"`
	Data dataDoc `json:"data" yaml:"data"`
}

func encodeData(d Data) dataDoc {
	switch v := d.(type) {
	case Increment:
		if v.Numeric {
			return dataDoc{Type: string(TypeIncrement), StartFrom: v.StartFrom}
		}
		return dataDoc{Type: string(TypeIncrement), StartFrom: v.Raw}
	case Unknown:
		doc := dataDoc{Type: v.RawType}
		if v.RawStartFrom != "" {
			doc.StartFrom = v.RawStartFrom
		}
		return doc
	default:
		return dataDoc{Type: string(TypeNone)}
	}
}

func (d Definition) doc() definitionDoc {
	return definitionDoc{ID: d.ID, Name: d.Name, Data: encodeData(d.Data)}
}

// MarshalJSON renders the definition as {"id","name","data":{"type","startFrom"}}.
func (d Definition) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.doc())
}

// UnmarshalJSON accepts the form produced by MarshalJSON. startFrom may be a
// number or a string.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Data struct {
			Type      string          `json:"type"`
			StartFrom json.RawMessage `json:"startFrom"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	startFrom := ""
	if len(raw.Data.StartFrom) > 0 && string(raw.Data.StartFrom) != "null" {
		if raw.Data.StartFrom[0] == '"' {
			if err := json.Unmarshal(raw.Data.StartFrom, &startFrom); err != nil {
				return err
			}
		} else {
			startFrom = string(raw.Data.StartFrom)
		}
	}

	d.ID = raw.ID
	d.Name = raw.Name
	d.Data = ParseData(raw.Data.Type, startFrom)
	return nil
}

// MarshalYAML mirrors the JSON layout.
func (d Definition) MarshalYAML() (any, error) {
	return d.doc(), nil
}

// UnmarshalYAML accepts the form produced by MarshalYAML.
func (d *Definition) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
		Data struct {
			Type      string `yaml:"type"`
			StartFrom string `yaml:"startFrom"`
		} `yaml:"data"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	d.ID = raw.ID
	d.Name = raw.Name
	d.Data = ParseData(raw.Data.Type, raw.Data.StartFrom)
	return nil
}
