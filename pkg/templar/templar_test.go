package templar

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/templar/pkg/field"
	"github.com/jmylchreest/templar/pkg/sanitize"
)

const invoice = `<!DOCTYPE html>
<html><head><title>Invoice</title><style>/* pdf2htmlEX */.t{font-size:12px}</style></head>
<body>
<div id="sidebar"><div id="outline">o</div></div>
<div id="page-container">
  <div class="pf">
    <div class="t">Invoice <span data-field-id="no" data-field-name="Number" data-field-data-type="increment" data-field-data-start-from="1000">1000</span></div>
    <div class="t" data-field-id="customer" data-field-name="Customer">ACME</div>
    <div class="loading-indicator"></div>
  </div>
</div>
</body></html>`

func TestProcess(t *testing.T) {
	result, err := Process(invoice)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := []field.Definition{
		{ID: "no", Name: "Number", Data: field.Increment{StartFrom: 1000, Raw: "1000", Numeric: true}},
		{ID: "customer", Name: "Customer", Data: field.None{}},
	}
	if diff := cmp.Diff(want, result.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if len(result.FieldErrors) != 0 {
		t.Errorf("expected no field errors, got %v", result.FieldErrors)
	}
	if !result.Valid() {
		t.Error("expected result to be valid")
	}

	if result.Styles != "<style>.t{font-size:12px}</style>" {
		t.Errorf("unexpected styles: %s", result.Styles)
	}
	if result.RawStyles != ".t{font-size:12px}" {
		t.Errorf("unexpected raw styles: %s", result.RawStyles)
	}
	if diff := cmp.Diff([]string{"pf", "t"}, result.Classes); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"<title", "sidebar", "outline", "loading-indicator", "<style"} {
		if strings.Contains(result.HTML, bad) {
			t.Errorf("expected %q absent, got %s", bad, result.HTML)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Find(`span.editable[tabindex="0"]`).Length() != 2 {
		t.Errorf("expected text beside the field span to be isolated, got %s", result.HTML)
	}
	if !doc.Find(`[data-field-id="customer"]`).HasClass("editable") {
		t.Errorf("expected field element to be editable, got %s", result.HTML)
	}
	if doc.Find("#page-container").HasClass("editable") {
		t.Error("expected root container to stay unmarked")
	}
	if doc.Find(".edit-active").Length() != 0 {
		t.Error("expected active class never applied")
	}

	if result.StructureStats == nil || result.AnnotateStats == nil {
		t.Fatal("expected stats for both passes")
	}
	if result.StructureStats.FieldsExtracted != 2 {
		t.Errorf("expected 2 fields extracted, got %d", result.StructureStats.FieldsExtracted)
	}
}

func TestProcessFieldValidation(t *testing.T) {
	raw := `<span data-field-id="a" data-field-name="A">1</span>` +
		`<span data-field-id="b" data-field-data-type="bogus">2</span>` +
		`<span data-field-id="a" data-field-name="Again" data-field-data-type="increment" data-field-data-start-from="-2">3</span>`

	tests := []struct {
		name       string
		opts       []Option
		wantFields []string
	}{
		{
			name:       "default validation",
			wantFields: []string{"name", "data.type", "data.startFrom"},
		},
		{
			name:       "with unique ids",
			opts:       []Option{WithUniqueFieldIDs(true)},
			wantFields: []string{"name", "data.type", "data.startFrom", "id"},
		},
		{
			name: "validation disabled",
			opts: []Option{WithValidation(false)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Process(raw, tt.opts...)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if len(result.Fields) != 3 {
				t.Fatalf("expected all 3 fields kept, got %d", len(result.Fields))
			}
			var got []string
			for _, e := range result.FieldErrors {
				got = append(got, e.Field)
			}
			if diff := cmp.Diff(tt.wantFields, got); diff != "" {
				t.Errorf("field errors mismatch (-want +got):\n%s", diff)
			}
			if len(result.Warnings) != 1 {
				t.Errorf("expected 1 warning for the bogus type, got %v", result.Warnings)
			}
		})
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := sanitize.DefaultConfig()
	cfg.WrapperTag = ""
	if _, err := New(WithConfig(cfg)); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestResultDocument(t *testing.T) {
	result, err := Process(`<html><head></head><body><style>.a{}</style><p>x</p></body></html>`)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	page, err := result.Document()
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if !strings.Contains(page, "<head><style>.a{}</style></head>") {
		t.Errorf("expected style block in head, got %s", page)
	}
	if strings.Count(page, "<style>") != 1 {
		t.Errorf("expected exactly one style block, got %s", page)
	}
}

func TestProcessMany(t *testing.T) {
	p, err := New(WithSession(sanitize.NewSession()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	docs := make([]Document, 20)
	for i := range docs {
		docs[i] = Document{
			Name: fmt.Sprintf("doc-%02d", i),
			HTML: fmt.Sprintf(`<div data-field-id="f%d" data-field-name="N">%d</div>`, i, i),
		}
	}

	results := p.ProcessMany(context.Background(), docs, 4)
	if len(results) != len(docs) {
		t.Fatalf("expected %d results, got %d", len(docs), len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("result %d: unexpected error %v", i, r.Err)
			continue
		}
		if r.Name != docs[i].Name {
			t.Errorf("result %d: expected name %s, got %s", i, docs[i].Name, r.Name)
		}
		if len(r.Fields) != 1 || r.Fields[0].ID != fmt.Sprintf("f%d", i) {
			t.Errorf("result %d: unexpected fields %v", i, r.Fields)
		}
	}
}

func TestProcessManyCancelled(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := p.ProcessMany(ctx, []Document{{Name: "a", HTML: "<p>a</p>"}, {Name: "b", HTML: "<p>b</p>"}}, 0)
	for _, r := range results {
		if r.Err == nil {
			t.Errorf("%s: expected cancellation error", r.Name)
		}
		if r.Error == "" {
			t.Errorf("%s: expected serialized error", r.Name)
		}
		if r.Valid() {
			t.Errorf("%s: expected invalid result", r.Name)
		}
	}
}
