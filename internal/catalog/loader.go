// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// snapshotRecord is the on-disk shape of one catalog entry. Duration is a
// pointer so that an absent field maps to DurationUnknown rather than zero.
type snapshotRecord struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	Description     string     `json:"description"`
	Categories      []Category `json:"categories"`
	DurationMinutes *int       `json:"duration_minutes"`
	AdaptiveSupport bool       `json:"adaptive_support"`
	RemoteSupport   bool       `json:"remote_support"`
}

// Load reads and validates a catalog snapshot from path.
//
// Validation failures are fatal: a malformed snapshot means the external
// crawler and this service disagree about the contract, and serving from a
// partially valid catalog would mask that.
func Load(path string) ([]Assessment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog snapshot: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates snapshot bytes. Records keep their file order;
// the index and the lexical fallback both rely on insertion order for
// deterministic tie-breaking.
func Parse(data []byte) ([]Assessment, error) {
	var raw []snapshotRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog snapshot: %w", err)
	}

	// An empty snapshot is valid: the service serves empty results until the
	// crawler publishes records.
	records := make([]Assessment, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, r := range raw {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return nil, fmt.Errorf("record %d: empty id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("record %d: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}

		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("record %q: empty name", id)
		}
		if len(r.Categories) == 0 {
			return nil, fmt.Errorf("record %q: no categories", id)
		}

		duration := DurationUnknown
		if r.DurationMinutes != nil {
			if *r.DurationMinutes < 0 {
				return nil, fmt.Errorf("record %q: negative duration", id)
			}
			duration = *r.DurationMinutes
		}

		records = append(records, Assessment{
			ID:              id,
			Name:            strings.TrimSpace(r.Name),
			URL:             strings.TrimSpace(r.URL),
			Description:     strings.TrimSpace(r.Description),
			Categories:      r.Categories,
			DurationMinutes: duration,
			AdaptiveSupport: r.AdaptiveSupport,
			RemoteSupport:   r.RemoteSupport,
		})
	}

	return records, nil
}
