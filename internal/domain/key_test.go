package domain_test

import (
	"strings"
	"testing"

	"github.com/Amund211/collapser/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestValidateKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		key   string
		valid bool
	}{
		{name: "simple", key: "hello", valid: true},
		{name: "with spaces", key: "hello world", valid: true},
		{name: "unicode", key: "héllo wörld", valid: true},
		{name: "max length", key: strings.Repeat("a", domain.MaxKeyLength), valid: true},
		{name: "empty", key: "", valid: false},
		{name: "too long", key: strings.Repeat("a", domain.MaxKeyLength+1), valid: false},
		{name: "invalid utf-8", key: "\xff\xfe", valid: false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			err := domain.ValidateKey(c.key)
			if c.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, domain.ErrInvalidKey)
		})
	}
}
