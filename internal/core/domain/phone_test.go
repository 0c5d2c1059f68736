package domain_test

import (
	"testing"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "formatted north american", raw: "+1 (415) 555-0100", want: "14155550100"},
		{name: "international 00 prefix", raw: "0044 20 7946 0000", want: "442079460000"},
		{name: "digits only", raw: "4155550100", want: "4155550100"},
		{name: "empty", raw: "", want: ""},
		{name: "no digits", raw: "n/a", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NormalizePhone(tt.raw))
		})
	}
}

func TestPhoneKey_IgnoresTrunkPrefix(t *testing.T) {
	assert.Equal(t, "4155550100", domain.PhoneKey("+1 415 555 0100"))
	assert.Equal(t, "4155550100", domain.PhoneKey("415-555-0100"))
	assert.Equal(t, "442079460000", domain.PhoneKey("+44 20 7946 0000"))
}

func TestPhoneVariants(t *testing.T) {
	t.Run("ten digit number", func(t *testing.T) {
		got := domain.PhoneVariants("(415) 555-0100")
		assert.Equal(t, []string{"4155550100", "+4155550100", "+14155550100", "14155550100"}, got)
	})

	t.Run("number with trunk prefix also yields the bare form", func(t *testing.T) {
		got := domain.PhoneVariants("+14155550100")
		assert.Contains(t, got, "14155550100")
		assert.Contains(t, got, "+14155550100")
		assert.Contains(t, got, "4155550100")
		assert.Contains(t, got, "+4155550100")
		assert.Len(t, got, 6)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, domain.PhoneVariants("  "))
	})
}

func TestPhonesMatch(t *testing.T) {
	assert.True(t, domain.PhonesMatch("+1 415 555 0100", "4155550100"))
	assert.True(t, domain.PhonesMatch("415.555.0100", "(415) 555-0100"))
	assert.False(t, domain.PhonesMatch("4155550100", "4155550101"))
	assert.False(t, domain.PhonesMatch("", ""))
}

func TestLooksLikePhone(t *testing.T) {
	tests := []struct {
		identifier string
		want       bool
	}{
		{identifier: "4021", want: false},
		{identifier: "1234567", want: false},
		{identifier: "4155550100", want: true},
		{identifier: "(415) 555-0100", want: true},
		{identifier: "555-0100", want: true},
		{identifier: "+44 20 7946 0000", want: true},
		{identifier: "+4420", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.LooksLikePhone(tt.identifier))
		})
	}
}
