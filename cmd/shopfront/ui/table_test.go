package ui

import (
	"strings"
	"testing"
)

func TestTableRendersHeadersAndRows(t *testing.T) {
	tbl := NewTable("Catalog", "ID", "Name", "Price")
	tbl.AlignRight(2)
	tbl.AddRow("1", "Widget", "$9.99")
	tbl.AddRow("2", "Gadget Pro", "$24.50")

	out := tbl.View(NewStyles(LightTheme()))

	for _, want := range []string{"Catalog", "ID", "Name", "Price", "Widget", "Gadget Pro", "$24.50"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestTablePadsShortRows(t *testing.T) {
	tbl := NewTable("", "A", "B", "C")
	tbl.AddRow("only")

	out := tbl.View(NewStyles(LightTheme()))
	if !strings.Contains(out, "only") {
		t.Fatalf("padded row lost its cell:\n%s", out)
	}
}

func TestTableRightAlign(t *testing.T) {
	tbl := NewTable("", "Qty")
	tbl.AlignRight(0)
	tbl.AddRow("1")

	if got := tbl.pad("1", 5, 0); got != "    1" {
		t.Fatalf("pad right = %q", got)
	}
	if got := tbl.pad("1", 5, 1); got != "1    " {
		t.Fatalf("pad left = %q", got)
	}
}

func TestMoney(t *testing.T) {
	if got := Money(9.9); got != "$9.90" {
		t.Fatalf("Money(9.9) = %q", got)
	}
	if got := Money(0); got != "$0.00" {
		t.Fatalf("Money(0) = %q", got)
	}
}

func TestToastRender(t *testing.T) {
	styles := NewStyles(DarkTheme())

	if out := (Toast{}).Render(styles); out != "" {
		t.Fatalf("empty toast rendered %q", out)
	}
	if out := ErrorToast("checkout failed").Render(styles); !strings.Contains(out, "checkout failed") {
		t.Fatalf("error toast missing message: %q", out)
	}
	if out := SuccessToast("order placed").Render(styles); !strings.Contains(out, "order placed") {
		t.Fatalf("success toast missing message: %q", out)
	}
}

func TestThemeFor(t *testing.T) {
	if ThemeFor("dark") != DarkTheme() {
		t.Fatal("dark name should select the dark theme")
	}
	if ThemeFor("light") != LightTheme() {
		t.Fatal("light name should select the light theme")
	}
}
