package common

import "testing"

func TestTitleWords(t *testing.T) {
	tests := map[string]string{
		"jakarta selatan": "Jakarta Selatan",
		"SURABAYA":        "Surabaya",
		" kota-baru ":     "Kota-Baru",
		"":                "",
		"st. john's wood": "St. John'S Wood",
	}
	for in, want := range tests {
		if got := TitleWords(in); got != want {
			t.Errorf("TitleWords(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFirstSegment(t *testing.T) {
	if got := FirstSegment("Bandung, Jawa Barat, Indonesia"); got != "Bandung" {
		t.Errorf("expected Bandung, got %q", got)
	}
	if got := FirstSegment("  Bogor "); got != "Bogor" {
		t.Errorf("expected Bogor, got %q", got)
	}
}

func TestHasAny(t *testing.T) {
	if !HasAny("kecamatan gubeng", "desa", "kecamatan") {
		t.Error("expected match")
	}
	if HasAny("gubeng", "desa", "kota") {
		t.Error("expected no match")
	}
}
