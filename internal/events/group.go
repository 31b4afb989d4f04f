package events

// SlotKey identifies the block a record landed in. The zero value means the
// record carries no block id; two such records share a key.
type SlotKey struct {
	Valid bool
	Slot  uint64
}

// SlotKeyOf builds a SlotKey from a nullable block id
func SlotKeyOf(slot *uint64) SlotKey {
	if slot == nil {
		return SlotKey{}
	}
	return SlotKey{Valid: true, Slot: *slot}
}

// Confirmed reports whether the key names a real block. Slot zero is not one.
func (k SlotKey) Confirmed() bool {
	return k.Valid && k.Slot != 0
}

// Ptr returns the slot as a nullable value
func (k SlotKey) Ptr() *uint64 {
	if !k.Valid {
		return nil
	}
	s := k.Slot
	return &s
}

// GroupContiguous splits items into runs of neighbours that share the same key.
// Only adjacent items are grouped; equal keys separated by another key start a
// new group. The input is not modified.
func GroupContiguous[T any, K comparable](items []T, key func(T) K) [][]T {
	var groups [][]T
	for i := 0; i < len(items); i++ {
		k := key(items[i])
		group := []T{items[i]}
		for i+1 < len(items) && key(items[i+1]) == k {
			i++
			group = append(group, items[i])
		}
		groups = append(groups, group)
	}
	return groups
}

// Status is the success/failure classification shown next to a row
type Status struct {
	Class string
	Text  string
}

var (
	// StatusSuccess marks a record that landed in a block without error
	StatusSuccess = Status{Class: "success", Text: "Success"}
	// StatusFailed marks a record without a block or with an error
	StatusFailed = Status{Class: "warning", Text: "Failed"}
)

// BlockStatus classifies a record by the presence of a block id
func BlockStatus(k SlotKey) Status {
	if !k.Confirmed() {
		return StatusFailed
	}
	return StatusSuccess
}
