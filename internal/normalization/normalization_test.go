package normalization

import "testing"

func TestParseInputString(t *testing.T) {
	cases := map[string]string{
		"  hello  world  ": "hello world",
		"one\ttwo\nthree":  "one two three",
		"":                 "",
		"   ":              "",
	}
	for in, want := range cases {
		if got := ParseInputString(in); got != want {
			t.Errorf("ParseInputString(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Errorf("got %q", got)
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "user.name+tag@example.com", "x_1@sub.domain.org"}
	for _, email := range valid {
		if !ValidEmail(email) {
			t.Errorf("ValidEmail(%q) = false, want true", email)
		}
	}
	invalid := []string{"", "plain", "@missing.local", "user@", "user@nodot", "a b@example.com"}
	for _, email := range invalid {
		if ValidEmail(email) {
			t.Errorf("ValidEmail(%q) = true, want false", email)
		}
	}
}

func TestStrongPassword(t *testing.T) {
	strong := []string{"Sup3rSecret!", "Aa1!aaaa"}
	for _, pw := range strong {
		if !StrongPassword(pw) {
			t.Errorf("StrongPassword(%q) = false, want true", pw)
		}
	}
	weak := []string{"alllowercase1!", "ALLUPPER1!", "NoDigits!!", "NoSpecial11", "Aa1!a"}
	for _, pw := range weak {
		if StrongPassword(pw) {
			t.Errorf("StrongPassword(%q) = true, want false", pw)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Winter Boots":       "winter-boots",
		"  Déjà  Vu  ":       "d-j-vu",
		"Already-Slugged":    "already-slugged",
		"--Leading Trailing": "leading-trailing",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
