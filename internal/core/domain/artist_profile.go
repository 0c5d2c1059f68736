package domain

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// ArtistProfile is the public-facing artist record owned by a Person.
type ArtistProfile struct {
	ProfileID       string   `json:"profileID"`
	PersonID        string   `json:"personID"`
	EntryID         int64    `json:"entryID"`
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Aliases         AliasSet `json:"aliases"`
	PayoutAccountID *string  `json:"payoutAccountID,omitempty"`
	SupersededBy    *string  `json:"supersededBy,omitempty"`
	AuditFields
}

// IsSuperseded reports whether the profile has been merged into another.
func (p ArtistProfile) IsSuperseded() bool {
	return p.SupersededBy != nil
}

// AliasEntryIDs returns the external numbers this profile is also known by.
// The profile's own EntryID is never part of the result.
func (p ArtistProfile) AliasEntryIDs() []int64 {
	ids := p.Aliases.EntryIDs()
	out := ids[:0:0]
	for _, id := range ids {
		if id != p.EntryID {
			out = append(out, id)
		}
	}
	return out
}

// KnownAs reports whether the profile answers to the given external number,
// either directly or through its alias set.
func (p ArtistProfile) KnownAs(entryID int64) bool {
	if p.EntryID == entryID {
		return true
	}
	return p.Aliases.Contains(entryID)
}

// AliasShape identifies how an alias set was stored.
type AliasShape string

const (
	AliasShapeFlat    AliasShape = "flat"
	AliasShapeCluster AliasShape = "cluster"
)

// AliasCluster groups external numbers known to belong to the same artist.
type AliasCluster struct {
	ClusterEntryIDs []int64 `json:"cluster_entry_ids"`
}

// AliasSet is the set of other external numbers an artist profile is known by.
// Stored data comes in two shapes: a flat list of numbers, or a list of clusters.
// Both decode into this type and are read through EntryIDs.
type AliasSet struct {
	Shape    AliasShape
	Flat     []int64
	Clusters []AliasCluster
}

// NewFlatAliasSet builds a flat alias set.
func NewFlatAliasSet(ids ...int64) AliasSet {
	return AliasSet{Shape: AliasShapeFlat, Flat: ids}
}

// NewClusterAliasSet builds a clustered alias set.
func NewClusterAliasSet(clusters ...[]int64) AliasSet {
	set := AliasSet{Shape: AliasShapeCluster}
	for _, c := range clusters {
		set.Clusters = append(set.Clusters, AliasCluster{ClusterEntryIDs: c})
	}
	return set
}

// EntryIDs returns every distinct external number in the set, sorted ascending.
func (a AliasSet) EntryIDs() []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range a.Flat {
		add(id)
	}
	for _, c := range a.Clusters {
		for _, id := range c.ClusterEntryIDs {
			add(id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains reports whether id is in the set.
func (a AliasSet) Contains(id int64) bool {
	for _, v := range a.Flat {
		if v == id {
			return true
		}
	}
	for _, c := range a.Clusters {
		for _, v := range c.ClusterEntryIDs {
			if v == id {
				return true
			}
		}
	}
	return false
}

// IsEmpty reports whether the set holds no numbers.
func (a AliasSet) IsEmpty() bool {
	return len(a.EntryIDs()) == 0
}

// MarshalJSON writes the set back in the shape it was read in.
func (a AliasSet) MarshalJSON() ([]byte, error) {
	switch a.Shape {
	case AliasShapeCluster:
		if a.Clusters == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Clusters)
	default:
		if a.Flat == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Flat)
	}
}

// UnmarshalJSON accepts every stored alias shape:
// null, [1,2], ["1","2"], {"cluster_entry_ids":[...]} and [{"cluster_entry_ids":[...]}, ...].
func (a *AliasSet) UnmarshalJSON(data []byte) error {
	*a = AliasSet{Shape: AliasShapeFlat}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var cluster rawCluster
		if err := json.Unmarshal(trimmed, &cluster); err != nil {
			return fmt.Errorf("decode alias cluster: %w", err)
		}
		ids, err := cluster.ids()
		if err != nil {
			return err
		}
		a.Shape = AliasShapeCluster
		a.Clusters = []AliasCluster{{ClusterEntryIDs: ids}}
		return nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("decode alias list: %w", err)
		}
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) == 0 || bytes.Equal(item, []byte("null")) {
				continue
			}
			if item[0] == '{' {
				var cluster rawCluster
				if err := json.Unmarshal(item, &cluster); err != nil {
					return fmt.Errorf("decode alias cluster: %w", err)
				}
				ids, err := cluster.ids()
				if err != nil {
					return err
				}
				a.Shape = AliasShapeCluster
				a.Clusters = append(a.Clusters, AliasCluster{ClusterEntryIDs: ids})
				continue
			}
			id, err := parseEntryID(item)
			if err != nil {
				return err
			}
			a.Flat = append(a.Flat, id)
		}
		if a.Shape == AliasShapeCluster && len(a.Flat) > 0 {
			// Mixed lists keep loose numbers as their own cluster.
			a.Clusters = append(a.Clusters, AliasCluster{ClusterEntryIDs: a.Flat})
			a.Flat = nil
		}
		return nil
	default:
		return fmt.Errorf("decode alias set: unsupported shape %q", string(trimmed[:1]))
	}
}

type rawCluster struct {
	ClusterEntryIDs []json.RawMessage `json:"cluster_entry_ids"`
}

func (c rawCluster) ids() ([]int64, error) {
	ids := make([]int64, 0, len(c.ClusterEntryIDs))
	for _, raw := range c.ClusterEntryIDs {
		id, err := parseEntryID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseEntryID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("decode alias entry id: %w", err)
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("decode alias entry id %q: %w", s, err)
		}
		return id, nil
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, fmt.Errorf("decode alias entry id: %w", err)
	}
	return id, nil
}

// ResolveCanonical follows SupersededBy links from start until it reaches a live profile.
// lookup returns the profile for an ID. A cycle or a dangling link is an error.
func ResolveCanonical(start ArtistProfile, lookup func(profileID string) (*ArtistProfile, error)) (*ArtistProfile, error) {
	current := start
	visited := map[string]struct{}{current.ProfileID: {}}
	for current.SupersededBy != nil {
		next, err := lookup(*current.SupersededBy)
		if err != nil {
			return nil, fmt.Errorf("follow supersession from %s: %w", current.ProfileID, err)
		}
		if _, ok := visited[next.ProfileID]; ok {
			return nil, fmt.Errorf("supersession cycle at profile %s", next.ProfileID)
		}
		visited[next.ProfileID] = struct{}{}
		current = *next
	}
	return &current, nil
}
