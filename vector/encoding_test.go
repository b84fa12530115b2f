package vector

import (
	"encoding/base64"
	"testing"
)

func TestEncodeDecodeEmbedding_RoundTrip(t *testing.T) {
	orig := []float32{0.0, 1.5, -2.25, 3.75}

	b, err := EncodeEmbedding(orig)
	if err != nil {
		t.Fatalf("EncodeEmbedding failed: %v", err)
	}
	decoded, err := DecodeEmbedding(b)
	if err != nil {
		t.Fatalf("DecodeEmbedding failed: %v", err)
	}
	if len(decoded) != len(orig) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(orig))
	}
	for i := range orig {
		if got, want := decoded[i], orig[i]; got != want {
			t.Fatalf("decoded[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestDecodeEmbedding_BadLength(t *testing.T) {
	if _, err := DecodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for 3-byte blob")
	}
}

func TestParseEmbedding(t *testing.T) {
	blob, _ := EncodeEmbedding([]float32{0.5, -1})
	cases := []struct {
		name string
		in   string
		want []float32
	}{
		{name: "json", in: "[0.5, -1]", want: []float32{0.5, -1}},
		{name: "csv", in: "0.5, -1", want: []float32{0.5, -1}},
		{name: "base64", in: base64.StdEncoding.EncodeToString(blob), want: []float32{0.5, -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseEmbedding(tc.in)
			if err != nil {
				t.Fatalf("ParseEmbedding(%q) failed: %v", tc.in, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("[%d] = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
	if _, err := ParseEmbedding("   "); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
