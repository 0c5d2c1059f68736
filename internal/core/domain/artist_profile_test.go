package domain_test

import (
	"errors"
	"testing"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringPtr(s string) *string {
	return &s
}

func TestAliasSet_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		shape domain.AliasShape
		want  []int64
	}{
		{name: "null", raw: `null`, shape: domain.AliasShapeFlat, want: nil},
		{name: "empty list", raw: `[]`, shape: domain.AliasShapeFlat, want: nil},
		{name: "flat numbers", raw: `[3990, 12]`, shape: domain.AliasShapeFlat, want: []int64{12, 3990}},
		{name: "flat strings", raw: `["3990","12"]`, shape: domain.AliasShapeFlat, want: []int64{12, 3990}},
		{name: "single cluster object", raw: `{"cluster_entry_ids":[5,"6"]}`, shape: domain.AliasShapeCluster, want: []int64{5, 6}},
		{name: "cluster list", raw: `[{"cluster_entry_ids":[7]},{"cluster_entry_ids":[8,7]}]`, shape: domain.AliasShapeCluster, want: []int64{7, 8}},
		{name: "mixed list", raw: `[9, {"cluster_entry_ids":[10]}]`, shape: domain.AliasShapeCluster, want: []int64{9, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var set domain.AliasSet
			require.NoError(t, set.UnmarshalJSON([]byte(tt.raw)))
			assert.Equal(t, tt.shape, set.Shape)
			assert.Equal(t, tt.want, set.EntryIDs())
		})
	}
}

func TestAliasSet_UnmarshalJSON_Invalid(t *testing.T) {
	for _, raw := range []string{`"4021"`, `["abc"]`, `{"cluster_entry_ids":["x"]}`, `true`} {
		t.Run(raw, func(t *testing.T) {
			var set domain.AliasSet
			assert.Error(t, set.UnmarshalJSON([]byte(raw)))
		})
	}
}

func TestAliasSet_MarshalJSON_KeepsShape(t *testing.T) {
	flat, err := domain.NewFlatAliasSet(1, 2).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(flat))

	clustered, err := domain.NewClusterAliasSet([]int64{5, 6}).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"cluster_entry_ids":[5,6]}]`, string(clustered))

	empty, err := domain.AliasSet{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(empty))
}

func TestArtistProfile_AliasEntryIDs(t *testing.T) {
	profile := domain.ArtistProfile{
		ProfileID: "p1",
		EntryID:   4021,
		Aliases:   domain.NewClusterAliasSet([]int64{4021, 3990}, []int64{12}),
	}

	assert.Equal(t, []int64{12, 3990}, profile.AliasEntryIDs())
	assert.True(t, profile.KnownAs(4021))
	assert.True(t, profile.KnownAs(3990))
	assert.False(t, profile.KnownAs(7))
	assert.False(t, profile.Aliases.IsEmpty())
	assert.True(t, domain.AliasSet{}.IsEmpty())
}

func TestResolveCanonical(t *testing.T) {
	profiles := map[string]domain.ArtistProfile{
		"a": {ProfileID: "a", SupersededBy: stringPtr("b")},
		"b": {ProfileID: "b", SupersededBy: stringPtr("c")},
		"c": {ProfileID: "c"},
		"x": {ProfileID: "x", SupersededBy: stringPtr("y")},
		"y": {ProfileID: "y", SupersededBy: stringPtr("x")},
		"d": {ProfileID: "d", SupersededBy: stringPtr("gone")},
	}
	lookup := func(id string) (*domain.ArtistProfile, error) {
		p, ok := profiles[id]
		if !ok {
			return nil, apperrors.ErrNotFound
		}
		return &p, nil
	}

	t.Run("follows the chain to the live profile", func(t *testing.T) {
		got, err := domain.ResolveCanonical(profiles["a"], lookup)
		require.NoError(t, err)
		assert.Equal(t, "c", got.ProfileID)
	})

	t.Run("live profile resolves to itself", func(t *testing.T) {
		got, err := domain.ResolveCanonical(profiles["c"], lookup)
		require.NoError(t, err)
		assert.Equal(t, "c", got.ProfileID)
	})

	t.Run("cycle is an error", func(t *testing.T) {
		_, err := domain.ResolveCanonical(profiles["x"], lookup)
		assert.ErrorContains(t, err, "cycle")
	})

	t.Run("dangling link is an error", func(t *testing.T) {
		_, err := domain.ResolveCanonical(profiles["d"], lookup)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
}

func TestPerson_PhoneKeys(t *testing.T) {
	a := domain.Person{PersonID: "a", Phones: []string{"+1 415 555 0100", "4155550100", ""}}
	a.RefreshPhoneKeys()
	assert.Equal(t, []string{"4155550100"}, a.PhoneKeys)

	b := domain.Person{PersonID: "b", Phones: []string{"(415) 555-0100"}}
	b.RefreshPhoneKeys()
	c := domain.Person{PersonID: "c", Phones: []string{"212 555 0199"}}
	c.RefreshPhoneKeys()

	assert.True(t, a.SharesPhoneWith(b))
	assert.False(t, a.SharesPhoneWith(c))
	assert.False(t, a.HasAuthIdentity())
	assert.False(t, domain.Person{ExternalAuthID: stringPtr("")}.HasAuthIdentity())
}
