package tokenize

import "testing"

func TestIdentifier(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"getUserById", "get user by id getuserbyid"},
		{"UserRepository", "user repository userrepository"},
		{"MAX_RETRIES", "max retries max_retries"},
		{"HTMLParser", "html parser htmlparser"},
		{"HTTP", "http"},
		{"add", "add"},
		{"", ""},
	}

	for _, c := range cases {
		if got := Identifier(c.name); got != c.want {
			t.Errorf("Identifier(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestIdentifierIdempotentSubwords(t *testing.T) {
	// Re-tokenizing a name must always include every subword from the
	// first pass (§8: "tokenize(name) ... idempotent over re-indexing").
	for _, name := range []string{"getUserById", "UserRepository", "parseHTTPRequest"} {
		first := Identifier(name)
		second := Identifier(name)
		if first != second {
			t.Errorf("tokenize not stable for %q: %q vs %q", name, first, second)
		}
	}
}
