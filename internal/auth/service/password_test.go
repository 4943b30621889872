package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		problems int
	}{
		{"strong", "Passw0rd!", 0},
		{"too short", "Pa0!", 1},
		{"no upper", "passw0rd!", 1},
		{"no lower", "PASSW0RD!", 1},
		{"no digit", "Password!", 1},
		{"no special", "Passw0rdd", 1},
		{"only lowercase", "password", 3},
		{"empty", "", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, DefaultPasswordPolicy.Check(tt.password), tt.problems)
		})
	}
}

func TestCheckEmail(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"alice@x.com", "a.b+c@mail.example.org"} {
		var p problems
		checkEmail(&p, ok)
		require.Empty(t, p, ok)
	}
	for _, bad := range []string{"", "alice", "alice@", "Alice <alice@x.com>", "alice@localhost"} {
		var p problems
		checkEmail(&p, bad)
		require.Len(t, p, 1, bad)
	}
}

func TestCheckUsername(t *testing.T) {
	t.Parallel()

	var p problems
	checkUsername(&p, "alice_01")
	require.Empty(t, p)

	for _, bad := range []string{"", "al", "has space", "emoji🙂"} {
		var p problems
		checkUsername(&p, bad)
		require.Len(t, p, 1, bad)
	}
}
