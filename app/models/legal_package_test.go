package models

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "bevillingsforvaltning", want: "bevillingsforvaltning"},
		{in: "Arbeidsrett & HR", want: "arbeidsrett-hr"},
		{in: "Generell forvaltningsrett", want: "generell-forvaltningsrett"},
		{in: "Helse og pasientrettigheter", want: "helse-og-pasientrettigheter"},
		{in: "  Søknad om skjenkebevilling  ", want: "soknad-om-skjenkebevilling"},
		{in: "Ferie og feriepenger – sjekkliste", want: "ferie-og-feriepenger-sjekkliste"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEstimateReadingTime(t *testing.T) {
	if got := EstimateReadingTime("kort tekst"); got != 1 {
		t.Fatalf("short text reading time = %d, want 1", got)
	}

	long := ""
	for i := 0; i < 600; i++ {
		long += "ord "
	}
	if got := EstimateReadingTime(long); got != 3 {
		t.Fatalf("600 word reading time = %d, want 3", got)
	}
}
