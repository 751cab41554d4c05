package domain

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases",
			input: "Foo Game",
			want:  "foo game",
		},
		{
			name:  "strips bracketed tag",
			input: "Foo Game [GOG]",
			want:  "foo game",
		},
		{
			name:  "strips parenthesised release year",
			input: "Foo Game (2019)",
			want:  "foo game",
		},
		{
			name:  "underscores become spaces",
			input: "FOO_GAME",
			want:  "foo game",
		},
		{
			name:  "strips diacritics",
			input: "Pokémon Édition",
			want:  "pokemon edition",
		},
		{
			name:  "strips edition boilerplate",
			input: "Foo Game Deluxe Edition",
			want:  "foo game",
		},
		{
			name:  "strips game of the year edition",
			input: "Foo Game: Game of the Year Edition",
			want:  "foo game",
		},
		{
			name:  "strips directors cut",
			input: "Foo Game DIRECTOR'S CUT",
			want:  "foo game",
		},
		{
			name:  "collapses whitespace",
			input: "Foo    Game   ",
			want:  "foo game",
		},
		{
			name:  "strips punctuation",
			input: "Foo.Game: Reloaded-v1.2",
			want:  "foogame reloadedv12",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "only punctuation",
			input: "!!!",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitleEquivalence(t *testing.T) {
	// Pairs a human would consider the same release modulo formatting.
	pairs := []struct {
		a, b string
	}{
		{"Foo Game [GOG]", "FOO_GAME"},
		{"Foo Game", "foo game"},
		{"Pokémon", "Pokemon"},
		{"Foo Game (2021)", "Foo Game [FitGirl Repack]"},
		{"Foo Game Ultimate Edition", "Foo Game"},
	}

	for _, p := range pairs {
		if got, want := NormalizeTitle(p.a), NormalizeTitle(p.b); got != want {
			t.Errorf("NormalizeTitle(%q) = %q, NormalizeTitle(%q) = %q, want equal", p.a, got, p.b, want)
		}
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	inputs := []string{
		"Foo Game [GOG] Deluxe Edition (2019)",
		"FOO_GAME",
		"Pokémon Édition Collector's Edition",
		"goty goty edition edition",
		"",
		"!!!",
		"The Witcher 3: Wild Hunt - Game of the Year Edition",
	}

	for _, in := range inputs {
		once := NormalizeTitle(in)
		twice := NormalizeTitle(once)
		if once != twice {
			t.Errorf("NormalizeTitle not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestTitleTokens(t *testing.T) {
	tokens := TitleTokens("the witcher 3 wild hunt")
	if len(tokens) != 5 {
		t.Fatalf("TitleTokens() returned %d tokens, want 5", len(tokens))
	}
	if tokens[0] != "the" || tokens[4] != "hunt" {
		t.Errorf("TitleTokens() = %v, unexpected token order", tokens)
	}

	if got := TitleTokens(""); len(got) != 0 {
		t.Errorf("TitleTokens(\"\") = %v, want empty", got)
	}
}
