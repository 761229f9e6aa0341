package availability

import (
	"encoding/json"
	"slices"

	"github.com/pkg/errors"
)

// BlockUsersMap maps a block start (milliseconds since the epoch, UTC) to the
// users available during that block. Iteration follows insertion order and
// re-setting a block keeps its position. The zero value is an empty map.
//
// A BlockUsersMap is not safe for concurrent writes.
type BlockUsersMap struct {
	order []int64
	users map[int64][]string
}

// NewBlockUsersMap returns an empty map.
func NewBlockUsersMap() *BlockUsersMap {
	return &BlockUsersMap{users: make(map[int64][]string)}
}

// Len returns the number of blocks.
func (m *BlockUsersMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Keys returns the blocks in iteration order.
func (m *BlockUsersMap) Keys() []int64 {
	if m == nil {
		return nil
	}
	return slices.Clone(m.order)
}

// Get returns the users of a block and whether the block exists.
// The returned slice is owned by the map.
func (m *BlockUsersMap) Get(block int64) ([]string, bool) {
	if m == nil {
		return nil, false
	}
	users, ok := m.users[block]
	return users, ok
}

// Has reports whether the block exists.
func (m *BlockUsersMap) Has(block int64) bool {
	_, ok := m.Get(block)
	return ok
}

// Set stores the users of a block, appending the block if it is new.
func (m *BlockUsersMap) Set(block int64, users []string) {
	if m.users == nil {
		m.users = make(map[int64][]string)
	}
	if _, ok := m.users[block]; !ok {
		m.order = append(m.order, block)
	}
	if users == nil {
		users = []string{}
	}
	m.users[block] = users
}

// Range calls fn for every block in order until fn returns false.
func (m *BlockUsersMap) Range(fn func(block int64, users []string) bool) {
	if m == nil {
		return
	}
	for _, block := range m.order {
		if !fn(block, m.users[block]) {
			return
		}
	}
}

// Clone returns a deep copy.
func (m *BlockUsersMap) Clone() *BlockUsersMap {
	out := NewBlockUsersMap()
	m.Range(func(block int64, users []string) bool {
		out.Set(block, slices.Clone(users))
		return true
	})
	return out
}

// Equal reports whether both maps hold the same blocks in the same order with
// the same users in the same order.
func (m *BlockUsersMap) Equal(other *BlockUsersMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	if m.Len() == 0 {
		return true
	}
	for i, block := range m.order {
		if other.order[i] != block || !slices.Equal(m.users[block], other.users[block]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the map as a list of [block, users] entries.
func (m *BlockUsersMap) MarshalJSON() ([]byte, error) {
	entries := make([][2]any, 0, m.Len())
	m.Range(func(block int64, users []string) bool {
		entries = append(entries, [2]any{block, users})
		return true
	})
	return json.Marshal(entries)
}

// UnmarshalJSON decodes a list of [block, users] entries. Later duplicates
// overwrite earlier ones in place; null decodes to an empty map.
func (m *BlockUsersMap) UnmarshalJSON(data []byte) error {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	decoded := NewBlockUsersMap()
	for i, raw := range entries {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil {
			return errors.Wrapf(err, "entry %d", i)
		}
		if len(pair) != 2 {
			return errors.Errorf("entry %d: expected [block, users], got %d elements", i, len(pair))
		}
		var block int64
		if err := json.Unmarshal(pair[0], &block); err != nil {
			return errors.Wrapf(err, "entry %d: block", i)
		}
		var users []string
		if err := json.Unmarshal(pair[1], &users); err != nil {
			return errors.Wrapf(err, "entry %d: users", i)
		}
		decoded.Set(block, users)
	}
	*m = *decoded
	return nil
}
