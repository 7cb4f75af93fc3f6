package core

// pageIDs slices an id index by cursor. Items come back in insertion order
// and the new cursor advances by the number of items returned; a cursor at
// or past the end yields an empty page with the cursor unchanged.
func pageIDs(ids []uint64, cursor, limit uint64) ([]uint64, uint64) {
	total := uint64(len(ids))
	if cursor >= total {
		return []uint64{}, cursor
	}
	n := limit
	if n > total-cursor {
		n = total - cursor
	}
	out := make([]uint64, n)
	copy(out, ids[cursor:cursor+n])
	return out, cursor + n
}
