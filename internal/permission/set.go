package permission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Set is a user's permission document: boolean flags, the allowed image download
// qualities and the per-preset access map.
//
// The zero value is an empty set. Unknown boolean keys read from JSON are kept so
// that documents written by older clients survive a round trip.
type Set struct {
	Flags        map[Key]bool
	Qualities    []Quality
	PresetAccess map[string]bool
}

// New returns an empty, initialised set.
func New() Set {
	return Set{
		Flags:        map[Key]bool{},
		Qualities:    []Quality{},
		PresetAccess: map[string]bool{},
	}
}

// Clone returns a deep copy of s.
func (s Set) Clone() Set {
	out := New()

	for k, v := range s.Flags {
		out.Flags[k] = v
	}

	out.Qualities = append(out.Qualities, s.Qualities...)

	for k, v := range s.PresetAccess {
		out.PresetAccess[k] = v
	}

	return out
}

// Get returns the raw value of a boolean flag. Missing flags are false.
func (s Set) Get(key Key) bool {
	return s.Flags[key]
}

// Has reports whether the set grants key, honouring the aggregate keys
// canEdit and canTexture.
func (s Set) Has(key Key) bool {
	if members, ok := aggregates[key]; ok {
		for _, m := range members {
			if s.Flags[m] {
				return true
			}
		}

		return false
	}

	return s.Flags[key]
}

// IsEmpty reports whether the set carries no flags and no qualities.
func (s Set) IsEmpty() bool {
	return len(s.Flags) == 0 && len(s.Qualities) == 0
}

// HasQuality reports whether q is an allowed download quality.
func (s Set) HasQuality(q Quality) bool {
	for _, have := range s.Qualities {
		if have == q {
			return true
		}
	}

	return false
}

// PresetAllowed reports whether the preset with the given id may be used.
// An empty access map means no per-preset restrictions.
func (s Set) PresetAllowed(id string) bool {
	if len(s.PresetAccess) == 0 {
		return true
	}

	if id == "" {
		return false
	}

	return s.PresetAccess[id]
}

// Normalized returns a copy where every boolean core key is defined and the
// quality list holds only known, unique tags.
func (s Set) Normalized() Set {
	out := s.Clone()

	for _, k := range coreFlags {
		if _, ok := out.Flags[k]; !ok {
			out.Flags[k] = false
		}
	}

	out.Qualities = uniqueQualities(out.Qualities)

	return out
}

// Apply sets a single flag and enforces the group rules in the same update:
// enabling a child enables its umbrella, disabling an umbrella disables all
// of its children.
func (s *Set) Apply(key Key, value bool) {
	if s.Flags == nil {
		s.Flags = map[Key]bool{}
	}

	s.Flags[key] = value

	if value {
		if parent, ok := Parent(key); ok {
			s.Flags[parent] = true
		}

		return
	}

	for _, child := range Children(key) {
		s.Flags[child] = false
	}
}

// Cascade re-applies the group rules to the whole set.
func (s *Set) Cascade() {
	if s.Flags == nil {
		s.Flags = map[Key]bool{}
	}

	for parent, children := range groups {
		for _, child := range children {
			if s.Flags[child] {
				s.Flags[parent] = true

				break
			}
		}
	}
}

// SetQuality adds or removes a download quality.
func (s *Set) SetQuality(q Quality, enabled bool) {
	if !q.Valid() {
		return
	}

	out := make([]Quality, 0, len(s.Qualities)+1)

	for _, have := range s.Qualities {
		if have != q {
			out = append(out, have)
		}
	}

	if enabled {
		out = append(out, q)
	}

	s.Qualities = out
}

// SetPresetAccess grants or revokes access to a single preset.
func (s *Set) SetPresetAccess(id string, enabled bool) {
	if s.PresetAccess == nil {
		s.PresetAccess = map[string]bool{}
	}

	s.PresetAccess[id] = enabled
}

// GrantAll turns every known and present flag on and allows every quality.
// Preset access is left untouched.
func (s *Set) GrantAll() {
	s.setAll(true)
	s.Qualities = AllQualities()
}

// RevokeAll turns every known and present flag off and clears the qualities.
// Preset access is left untouched.
func (s *Set) RevokeAll() {
	s.setAll(false)
	s.Qualities = []Quality{}
}

func (s *Set) setAll(value bool) {
	if s.Flags == nil {
		s.Flags = map[Key]bool{}
	}

	for _, k := range coreFlags {
		s.Flags[k] = value
	}

	for k := range s.Flags {
		s.Flags[k] = value
	}
}

// Equal compares two sets on the core keys only. Qualities compare as sets;
// preset access and unknown flags are ignored. The user management keys are
// administrative grants and are left out, so granting them does not mark a
// set as customized.
func Equal(a, b Set) bool {
	for _, k := range coreFlags {
		if _, admin := userManagementKeys[k]; admin {
			continue
		}

		if a.Flags[k] != b.Flags[k] {
			return false
		}
	}

	qa, qb := uniqueQualities(a.Qualities), uniqueQualities(b.Qualities)
	if len(qa) != len(qb) {
		return false
	}

	for _, q := range qa {
		if !b.HasQuality(q) {
			return false
		}
	}

	for _, q := range qb {
		if !a.HasQuality(q) {
			return false
		}
	}

	return true
}

// MarshalJSON writes the flat document shape used by the browser client.
func (s Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	keys := orderedKeys(s.Flags)
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		buf.Write(name)
		buf.WriteByte(':')

		if s.Flags[k] {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	}

	qualities := s.Qualities
	if qualities == nil {
		qualities = []Quality{}
	}

	q, err := json.Marshal(qualities)
	if err != nil {
		return nil, err
	}

	access := s.PresetAccess
	if access == nil {
		access = map[string]bool{}
	}

	pa, err := json.Marshal(access)
	if err != nil {
		return nil, err
	}

	if len(keys) > 0 {
		buf.WriteByte(',')
	}

	buf.WriteString(`"` + ImageDownloadQualities + `":`)
	buf.Write(q)
	buf.WriteString(`,"` + PresetAccess + `":`)
	buf.Write(pa)
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flat document shape. Non-boolean values for flag
// keys are ignored; unknown quality tags are dropped.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode permission set: %w", err)
	}

	out := New()

	for k, v := range raw {
		switch k {
		case ImageDownloadQualities:
			var qs []Quality
			if err := json.Unmarshal(v, &qs); err != nil {
				return fmt.Errorf("decode %s: %w", ImageDownloadQualities, err)
			}

			out.Qualities = uniqueQualities(qs)
		case PresetAccess:
			var pa map[string]bool
			if err := json.Unmarshal(v, &pa); err != nil {
				// older documents stored a bare boolean here
				continue
			}

			for id, allowed := range pa {
				out.PresetAccess[id] = allowed
			}
		default:
			var b bool
			if err := json.Unmarshal(v, &b); err != nil {
				continue
			}

			out.Flags[k] = b
		}
	}

	*s = out

	return nil
}

// orderedKeys returns core keys first in display order, then any extra keys sorted.
func orderedKeys(flags map[Key]bool) []Key {
	out := make([]Key, 0, len(flags))

	for _, k := range coreFlags {
		if _, ok := flags[k]; ok {
			out = append(out, k)
		}
	}

	var extra []Key

	for k := range flags {
		if !IsCoreFlag(k) {
			extra = append(extra, k)
		}
	}

	sort.Strings(extra)

	return append(out, extra...)
}

func uniqueQualities(in []Quality) []Quality {
	out := make([]Quality, 0, len(in))
	seen := make(map[Quality]struct{}, len(in))

	for _, q := range in {
		if !q.Valid() {
			continue
		}

		if _, dup := seen[q]; dup {
			continue
		}

		seen[q] = struct{}{}
		out = append(out, q)
	}

	return out
}
