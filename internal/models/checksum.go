package models

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Checksum computes a deterministic fingerprint over the identity- and
// freshness-relevant fields of a dataset: (id, name, updatedAt) per
// stat and (id, value, updatedAt) per entry. An entry's date and stat
// reference deliberately do not participate, so changing either without
// touching updatedAt is invisible to the checksum.
//
// The result is order-sensitive on the input slices; callers must
// supply collections in a stable order (primary-key order) for
// reproducibility.
func Checksum(stats []Stat, entries []Entry) string {
	d := xxhash.New()
	for _, s := range stats {
		writeField(d, "s", s.ID, s.Name, s.UpdatedAt)
	}
	for _, e := range entries {
		writeField(d, "e", e.ID, strconv.Itoa(e.Value), e.UpdatedAt)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

func writeField(d *xxhash.Digest, kind string, id int64, payload string, updated time.Time) {
	// Digest writes never fail.
	_, _ = d.WriteString(kind)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strconv.FormatInt(id, 10))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(payload)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(updated.UTC().Format(time.RFC3339Nano))
	_, _ = d.WriteString(";")
}
