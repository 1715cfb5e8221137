package catalog

import "testing"

func TestPickFieldPrecedence(t *testing.T) {
	row := Row{"Name": "short name", "Product Name": "Full Product Name"}
	if got := PickField(row, "Product Name", "Name"); got != "Full Product Name" {
		t.Fatalf("PickField = %q, want the Product Name value", got)
	}
	if got := PickField(row, "Name", "Product Name"); got != "short name" {
		t.Fatalf("PickField = %q, want the Name value", got)
	}
}

func TestPickFieldCaseInsensitiveAndTrimmed(t *testing.T) {
	row := Row{" category NAME ": "  GPU  "}
	if got := PickField(row, "Category", "Category Name"); got != "GPU" {
		t.Fatalf("PickField = %q, want GPU", got)
	}
}

func TestPickFieldSkipsBlankValues(t *testing.T) {
	row := Row{"Brand": "   ", "Manufacturer": "ASUS"}
	if got := PickField(row, "Brand", "Manufacturer"); got != "ASUS" {
		t.Fatalf("PickField = %q, want ASUS", got)
	}
}

func TestPickFieldOrDefault(t *testing.T) {
	row := Row{"Name": "x"}
	if got := PickFieldOr(row, "fallback", "Brand"); got != "fallback" {
		t.Fatalf("PickFieldOr = %q, want fallback", got)
	}
	if got := PickField(row, "Brand"); got != "" {
		t.Fatalf("PickField = %q, want empty", got)
	}
}

func TestPickFieldDoesNotMutateRow(t *testing.T) {
	row := Row{" Name ": " x "}
	PickField(row, "Name")
	if row[" Name "] != " x " || len(row) != 1 {
		t.Fatalf("row was modified: %#v", row)
	}
}
