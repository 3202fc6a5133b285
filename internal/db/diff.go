package db

import (
	"fmt"
	"sort"
)

// ScanDiff lists how the merged data source view changed between two scans
type ScanDiff struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// Empty reports whether nothing changed
func (d *ScanDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// DiffScans compares the merged data sources of two scans by name
func (d *DB) DiffScans(from, to string) (*ScanDiff, error) {
	a, err := d.GetScanDSNs(from, true)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", from, err)
	}
	b, err := d.GetScanDSNs(to, true)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", to, err)
	}

	before := make(map[string]*DSNEntry, len(a))
	for _, e := range a {
		before[e.Name] = e
	}
	after := make(map[string]*DSNEntry, len(b))
	for _, e := range b {
		after[e.Name] = e
	}

	diff := &ScanDiff{From: from, To: to}
	for name, e := range after {
		old, ok := before[name]
		switch {
		case !ok:
			diff.Added = append(diff.Added, name)
		case *old != *e:
			diff.Changed = append(diff.Changed, name)
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			diff.Removed = append(diff.Removed, name)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Changed)
	return diff, nil
}
