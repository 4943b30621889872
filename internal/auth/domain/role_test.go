package domain_test

import (
	"testing"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestRoleSatisfies(t *testing.T) {
	tests := []struct {
		have, want domain.Role
		ok         bool
	}{
		{domain.RoleUser, domain.RoleUser, true},
		{domain.RoleAdmin, domain.RoleUser, true},
		{domain.RoleAdmin, domain.RoleAdmin, true},
		{domain.RoleUser, domain.RoleAdmin, false},
		{domain.Role("guest"), domain.RoleUser, false},
		{domain.RoleAdmin, domain.Role("root"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.have)+"_as_"+string(tt.want), func(t *testing.T) {
			require.Equal(t, tt.ok, tt.have.Satisfies(tt.want))
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := domain.ParseRole("admin")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, r)

	_, err = domain.ParseRole("Admin")
	require.Error(t, err)
}

func TestParseCurrency(t *testing.T) {
	c, ok := domain.ParseCurrency(" pln ")
	require.True(t, ok)
	require.Equal(t, domain.CurrencyPLN, c)

	_, ok = domain.ParseCurrency("GBP")
	require.False(t, ok)
	require.Len(t, domain.SupportedCurrencies(), 4)
}
