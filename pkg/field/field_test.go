package field

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

func attrs(kv ...string) []html.Attribute {
	out := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return out
}

func TestParseData(t *testing.T) {
	tests := []struct {
		name      string
		dataType  string
		startFrom string
		want      Data
	}{
		{"empty type", "", "", None{}},
		{"empty type ignores start", "", "4", None{}},
		{"increment", "increment", "5", Increment{StartFrom: 5, Raw: "5", Numeric: true}},
		{"increment padded", "increment", " 12 ", Increment{StartFrom: 12, Raw: " 12 ", Numeric: true}},
		{"increment integral decimal", "increment", "3.0", Increment{StartFrom: 3, Raw: "3.0", Numeric: true}},
		{"increment negative", "increment", "-2", Increment{StartFrom: -2, Raw: "-2", Numeric: true}},
		{"increment fraction", "increment", "1.5", Increment{Raw: "1.5"}},
		{"increment non-numeric", "increment", "abc", Increment{Raw: "abc"}},
		{"increment missing start", "increment", "", Increment{}},
		{"unknown type", "bogus", "7", Unknown{RawType: "bogus", RawStartFrom: "7"}},
		{"type is case sensitive", "Increment", "1", Unknown{RawType: "Increment", RawStartFrom: "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseData(tt.dataType, tt.startFrom)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseData(%q, %q) mismatch (-want +got):\n%s", tt.dataType, tt.startFrom, diff)
			}
		})
	}
}

func TestFromAttributes(t *testing.T) {
	t.Run("no field id", func(t *testing.T) {
		_, ok := FromAttributes(attrs("class", "x", AttrName, "Count"))
		if ok {
			t.Error("expected node without data-field-id to not be a field")
		}
	})

	t.Run("full increment field", func(t *testing.T) {
		def, ok := FromAttributes(attrs(
			AttrID, "f1",
			AttrName, "Count",
			AttrDataType, "increment",
			AttrStartFrom, "5",
		))
		if !ok {
			t.Fatal("expected field")
		}
		want := Definition{ID: "f1", Name: "Count", Data: Increment{StartFrom: 5, Raw: "5", Numeric: true}}
		if diff := cmp.Diff(want, def); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("name defaults to empty", func(t *testing.T) {
		def, ok := FromAttributes(attrs(AttrID, "f2"))
		if !ok {
			t.Fatal("expected field")
		}
		if def.Name != "" {
			t.Errorf("expected empty name, got %q", def.Name)
		}
		if def.Type() != TypeNone {
			t.Errorf("expected TypeNone, got %q", def.Type())
		}
	})

	t.Run("empty id is still a field", func(t *testing.T) {
		def, ok := FromAttributes(attrs(AttrID, ""))
		if !ok {
			t.Fatal("expected presence of data-field-id to make a field")
		}
		if def.ID != "" {
			t.Errorf("expected empty id, got %q", def.ID)
		}
	})

	t.Run("bogus type keeps id", func(t *testing.T) {
		def, ok := FromAttributes(attrs(AttrID, "x", AttrDataType, "bogus"))
		if !ok {
			t.Fatal("expected field")
		}
		if def.ID != "x" {
			t.Errorf("expected id x, got %q", def.ID)
		}
		if _, isUnknown := def.Data.(Unknown); !isUnknown {
			t.Errorf("expected Unknown data, got %T", def.Data)
		}
	})
}

func TestDefinitionJSON(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		want string
	}{
		{
			name: "increment",
			def:  Definition{ID: "f1", Name: "Count", Data: Increment{StartFrom: 5, Raw: "5", Numeric: true}},
			want: `{"id":"f1","name":"Count","data":{"type":"increment","startFrom":5}}`,
		},
		{
			name: "increment from zero",
			def:  Definition{ID: "f1", Name: "Count", Data: Increment{StartFrom: 0, Raw: "0", Numeric: true}},
			want: `{"id":"f1","name":"Count","data":{"type":"increment","startFrom":0}}`,
		},
		{
			name: "non-numeric start passes through",
			def:  Definition{ID: "f1", Name: "Count", Data: Increment{Raw: "abc"}},
			want: `{"id":"f1","name":"Count","data":{"type":"increment","startFrom":"abc"}}`,
		},
		{
			name: "none",
			def:  Definition{ID: "f2", Name: "Plain", Data: None{}},
			want: `{"id":"f2","name":"Plain","data":{"type":""}}`,
		},
		{
			name: "nil data",
			def:  Definition{ID: "f2"},
			want: `{"id":"f2","name":"","data":{"type":""}}`,
		},
		{
			name: "unknown",
			def:  Definition{ID: "f3", Name: "Odd", Data: Unknown{RawType: "bogus"}},
			want: `{"id":"f3","name":"Odd","data":{"type":"bogus"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.def)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDefinitionUnmarshalJSON(t *testing.T) {
	var defs []Definition
	input := `[
		{"id":"a","name":"A","data":{"type":"increment","startFrom":3}},
		{"id":"b","name":"B","data":{"type":"increment","startFrom":"x"}},
		{"id":"c","name":"C","data":{"type":"weird"}},
		{"id":"d","name":"D","data":{"type":""}}
	]`
	if err := json.Unmarshal([]byte(input), &defs); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := []Definition{
		{ID: "a", Name: "A", Data: Increment{StartFrom: 3, Raw: "3", Numeric: true}},
		{ID: "b", Name: "B", Data: Increment{Raw: "x"}},
		{ID: "c", Name: "C", Data: Unknown{RawType: "weird"}},
		{ID: "d", Name: "D", Data: None{}},
	}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDefinitionYAML(t *testing.T) {
	def := Definition{ID: "f1", Name: "Count", Data: Increment{StartFrom: 5, Raw: "5", Numeric: true}}

	out, err := yaml.Marshal(def)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	for _, want := range []string{"id: f1", "name: Count", "type: increment", "startFrom: 5"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("expected YAML to contain %q, got:\n%s", want, out)
		}
	}

	var back Definition
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(def, back); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
