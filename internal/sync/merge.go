package sync

import (
	"sort"

	"habitd/internal/models"
)

// Merge computes the record-level union of two datasets with
// last-write-wins semantics: the remote side contributes its full
// collection, then each local record is added unless a record with the
// same identifier is already present, in which case the one with the
// strictly later updatedAt wins (ties keep the remote one). Records
// without an identifier never participate; merge only ever sees
// persisted snapshots from both stores. The result is returned in
// identifier order.
func Merge(local, remote models.BackupData) models.BackupData {
	return models.BackupData{
		Stats:   mergeStats(local.Stats, remote.Stats),
		Entries: mergeEntries(local.Entries, remote.Entries),
	}
}

func mergeStats(local, remote []models.Stat) []models.Stat {
	kept := make(map[int64]models.Stat, len(remote)+len(local))
	for _, s := range remote {
		if s.ID == 0 {
			continue
		}
		kept[s.ID] = s
	}
	for _, s := range local {
		if s.ID == 0 {
			continue
		}
		cur, ok := kept[s.ID]
		if !ok || s.UpdatedAt.After(cur.UpdatedAt) {
			kept[s.ID] = s
		}
	}

	out := make([]models.Stat, 0, len(kept))
	for _, s := range kept {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func mergeEntries(local, remote []models.Entry) []models.Entry {
	kept := make(map[int64]models.Entry, len(remote)+len(local))
	for _, e := range remote {
		if e.ID == 0 {
			continue
		}
		kept[e.ID] = e
	}
	for _, e := range local {
		if e.ID == 0 {
			continue
		}
		cur, ok := kept[e.ID]
		if !ok || e.UpdatedAt.After(cur.UpdatedAt) {
			kept[e.ID] = e
		}
	}

	out := make([]models.Entry, 0, len(kept))
	for _, e := range kept {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
