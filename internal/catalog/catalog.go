// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package catalog

import (
	"fmt"
	"strings"
)

// Category classifies an assessment. The enumeration is closed: every record
// carries at least one of these tags, and the diversity balancer partitions
// candidates by them.
type Category int

const (
	// CategoryKnowledge covers knowledge and skills tests (code "K").
	CategoryKnowledge Category = iota
	// CategoryPersonality covers personality and behaviour tests (code "P").
	CategoryPersonality
	// CategoryAptitude covers cognitive and aptitude tests (code "A").
	CategoryAptitude
	// CategorySimulation covers job simulations (code "S").
	CategorySimulation
	// CategoryOther covers everything else (code "O").
	CategoryOther
)

// String returns the full category name.
func (c Category) String() string {
	switch c {
	case CategoryKnowledge:
		return "Knowledge & Skills"
	case CategoryPersonality:
		return "Personality & Behavior"
	case CategoryAptitude:
		return "Aptitude"
	case CategorySimulation:
		return "Simulation"
	case CategoryOther:
		return "Other"
	default:
		return "Other"
	}
}

// Code returns the single-letter code used in the snapshot format.
func (c Category) Code() string {
	switch c {
	case CategoryKnowledge:
		return "K"
	case CategoryPersonality:
		return "P"
	case CategoryAptitude:
		return "A"
	case CategorySimulation:
		return "S"
	case CategoryOther:
		return "O"
	default:
		return "O"
	}
}

// MarshalJSON encodes the category as its full name.
func (c Category) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON accepts letter codes and full names.
func (c *Category) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory maps a snapshot tag (letter code or full name) to a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "k", "knowledge", "knowledge & skills", "knowledge and skills":
		return CategoryKnowledge, nil
	case "p", "personality", "personality & behavior", "personality and behavior", "behavior", "behaviour":
		return CategoryPersonality, nil
	case "a", "c", "aptitude", "cognitive":
		return CategoryAptitude, nil
	case "s", "simulation", "simulations":
		return CategorySimulation, nil
	case "o", "other":
		return CategoryOther, nil
	default:
		return CategoryOther, fmt.Errorf("unknown category %q", s)
	}
}

// DurationUnknown is the sentinel for records without a published duration.
const DurationUnknown = -1

// Assessment is a single catalog record. Immutable after load.
type Assessment struct {
	// ID is the stable identifier, unique within the catalog.
	ID string `json:"id"`

	// Name is the display name. Never empty.
	Name string `json:"name"`

	// URL is the canonical reference link.
	URL string `json:"url"`

	// Description is free text. May be empty.
	Description string `json:"description,omitempty"`

	// Categories holds at least one category tag.
	Categories []Category `json:"categories"`

	// DurationMinutes is the published duration, or DurationUnknown.
	DurationMinutes int `json:"duration_minutes"`

	// AdaptiveSupport reports whether the test adapts to the candidate.
	AdaptiveSupport bool `json:"adaptive_support"`

	// RemoteSupport reports whether the test can be taken remotely.
	RemoteSupport bool `json:"remote_support"`
}

// PrimaryCategory returns the first category tag. The loader guarantees at
// least one tag per record.
func (a *Assessment) PrimaryCategory() Category {
	if len(a.Categories) == 0 {
		return CategoryOther
	}
	return a.Categories[0]
}

// CanonicalText is the text embedded at index-build time and scored by the
// lexical fallback. Name, description, and category names are concatenated so
// that category vocabulary ("personality", "simulation") is searchable too.
func (a *Assessment) CanonicalText() string {
	var sb strings.Builder
	sb.WriteString(a.Name)
	if a.Description != "" {
		sb.WriteString(" ")
		sb.WriteString(a.Description)
	}
	for _, c := range a.Categories {
		sb.WriteString(" ")
		sb.WriteString(c.String())
	}
	return sb.String()
}

// CategoryNames returns the full names of all category tags, in record order.
func (a *Assessment) CategoryNames() []string {
	names := make([]string, len(a.Categories))
	for i, c := range a.Categories {
		names[i] = c.String()
	}
	return names
}
