package volume

// Renumber rewrites labels into a dense 1..N numbering ordered by first
// appearance in the linear scan.  Background (0) stays 0.  The returned
// inverse map recovers original ids from renumbered ones.
func Renumber(labels *LabelVolume) (renumbered *LabelVolume, inverse map[uint64]uint64) {
	renumbered = NewLabelVolume(labels.Bounds)
	forward := make(map[uint64]uint64)
	inverse = make(map[uint64]uint64)
	var next uint64 = 1
	for i, label := range labels.Data {
		if label == 0 {
			continue
		}
		dense, found := forward[label]
		if !found {
			dense = next
			next++
			forward[label] = dense
			inverse[dense] = label
		}
		renumbered.Data[i] = dense
	}
	return
}

// ObjectIDs returns the distinct non-background ids in a label volume,
// ordered by first appearance.
func ObjectIDs(labels *LabelVolume) []uint64 {
	seen := make(map[uint64]struct{})
	var ids []uint64
	for _, label := range labels.Data {
		if label == 0 {
			continue
		}
		if _, found := seen[label]; !found {
			seen[label] = struct{}{}
			ids = append(ids, label)
		}
	}
	return ids
}
