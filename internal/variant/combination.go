package variant

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Pair is one attribute-name/option-value entry of a combination.
type Pair struct {
	Key   string
	Value string
}

// Combination identifies one purchasable configuration of a product, e.g.
// {Storage: "64GB", Color: "Black"}. Pairs are kept sorted by key so that two
// combinations built from differently ordered input compare equal.
// Keys and values are case-sensitive.
type Combination struct {
	pairs []Pair
}

// FromMap builds a canonical combination from an attribute mapping.
func FromMap(m map[string]string) Combination {
	if len(m) == 0 {
		return Combination{}
	}

	pairs := make([]Pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })

	return Combination{pairs: pairs}
}

// Normalize returns the canonical key of an attribute mapping.
func Normalize(m map[string]string) string {
	return FromMap(m).Key()
}

// Pairs returns a copy of the sorted pairs.
func (c Combination) Pairs() []Pair {
	out := make([]Pair, len(c.pairs))
	copy(out, c.pairs)
	return out
}

// Map returns the combination as a plain mapping.
func (c Combination) Map() map[string]string {
	m := make(map[string]string, len(c.pairs))
	for _, p := range c.pairs {
		m[p.Key] = p.Value
	}
	return m
}

// Len returns the number of attributes in the combination.
func (c Combination) Len() int {
	return len(c.pairs)
}

// IsEmpty reports whether the combination selects no attributes.
func (c Combination) IsEmpty() bool {
	return len(c.pairs) == 0
}

// Get returns the option selected for the given attribute.
func (c Combination) Get(key string) (string, bool) {
	i := sort.Search(len(c.pairs), func(i int) bool { return c.pairs[i].Key >= key })
	if i < len(c.pairs) && c.pairs[i].Key == key {
		return c.pairs[i].Value, true
	}
	return "", false
}

// Key serializes the combination deterministically as a JSON array of
// [key, value] pairs. An empty combination yields "".
func (c Combination) Key() string {
	if len(c.pairs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, p := range c.pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		k, _ := json.Marshal(p.Key)
		v, _ := json.Marshal(p.Value)
		b.WriteByte('[')
		b.Write(k)
		b.WriteByte(',')
		b.Write(v)
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// Equal reports whether both combinations select the same options.
func (c Combination) Equal(other Combination) bool {
	if len(c.pairs) != len(other.pairs) {
		return false
	}
	for i := range c.pairs {
		if c.pairs[i] != other.pairs[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (c Combination) String() string {
	parts := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		parts[i] = fmt.Sprintf("%s=%s", p.Key, p.Value)
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON encodes the combination as a JSON object.
func (c Combination) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// UnmarshalJSON decodes a JSON object (or null) into a canonical combination.
func (c *Combination) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("variant combination must be an object of strings: %w", err)
	}
	*c = FromMap(m)
	return nil
}

// LineKey is the identity of a cart or order line: product plus variant.
func LineKey(productID string, c Combination) string {
	return productID + "|" + c.Key()
}
