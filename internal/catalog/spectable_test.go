package catalog

import (
	"reflect"
	"testing"
)

func TestExtractSpecTableStripsTrademarks(t *testing.T) {
	spec := ExtractSpecTable(`<table><tr><td>Processor®</td><td>Intel® Core™ i7</td></tr></table>`)
	if got := spec.Parts("CPU"); !reflect.DeepEqual(got, []string{"Intel Core i7"}) {
		t.Fatalf("CPU parts = %q, want [Intel Core i7]", got)
	}
}

func TestExtractSpecTableMapping(t *testing.T) {
	html := `<p>Great PC</p>
<table>
  <tr><th>Processor</th><td>AMD Ryzen 7 7800X3D</td></tr>
  <tr><td>System Board:</td><td>ASUS  B650-E&nbsp;WiFi</td></tr>
  <tr><td>RAM</td><td>32GB<br>DDR5</td></tr>
  <tr><td>Drive 1</td><td>1TB NVMe</td></tr>
  <tr><td>Drive 2</td><td>2TB HDD</td></tr>
  <tr><td>Drive 3</td><td>N/A</td></tr>
  <tr><td>Graphics Card</td><td>RTX 4070</td><td>12GB</td></tr>
  <tr><td>Warranty</td><td>3 years</td></tr>
  <tr><td>System Status</td><td>Ready</td></tr>
  <tr><td>Colour</td><td>Black</td></tr>
  <tr><td>Fans</td><td>-</td></tr>
  <tr><td>Only one cell</td></tr>
</table>`
	spec := ExtractSpecTable(html)

	want := Spec{
		{Category: "CPU", Parts: []string{"AMD Ryzen 7 7800X3D"}},
		{Category: "Motherboard", Parts: []string{"ASUS B650-E WiFi"}},
		{Category: "Memory", Parts: []string{"32GB DDR5"}},
		{Category: "Storage", Parts: []string{"1TB NVMe", "2TB HDD"}},
		{Category: "Graphics Card", Parts: []string{"RTX 4070 12GB"}},
	}
	if !reflect.DeepEqual(spec, want) {
		t.Fatalf("ExtractSpecTable =\n%#v\nwant\n%#v", spec, want)
	}
	if spec.Lines() != 6 {
		t.Fatalf("Lines = %d, want 6", spec.Lines())
	}
}

func TestExtractSpecTableWithoutTable(t *testing.T) {
	for _, in := range []string{"", "plain text", "<p>no table here</p>", "<table><tr><td>Processor"} {
		if spec := ExtractSpecTable(in); len(spec) != 0 {
			t.Errorf("ExtractSpecTable(%q) = %#v, want empty", in, spec)
		}
	}
}

func TestCategoryForLabel(t *testing.T) {
	tests := []struct {
		label  string
		want   string
		wantOK bool
	}{
		{"Processor", "CPU", true},
		{"processor:", "CPU", true},
		{"Drive 6", "Storage", true},
		{"drive12", "Storage", true},
		{"Fan 2", "Fans", true},
		{"Operating System", "Operating System", true},
		{"Tech Support", "", false},
		{"Weight", "", false},
	}
	for _, tt := range tests {
		got, ok := CategoryForLabel(tt.label)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CategoryForLabel(%q) = %q, %v; want %q, %v", tt.label, got, ok, tt.want, tt.wantOK)
		}
	}
}
