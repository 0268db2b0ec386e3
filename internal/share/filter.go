// Package share contains the pure core of the sharing subsystem: the filter
// composer, the accessibility evaluator, the overlay merge, and public uid
// generation.
//
// Everything here is a pure function over an in-memory snapshot: no store
// access, no side effects. The orchestration (fetching snapshots, recording
// accesses, persisting overlays) lives in the service layer.
package share

import (
	"sort"

	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
)

// FilterBookmarks applies a shared view's filter configuration to a snapshot
// of the bookmark catalog and returns the subset a public visitor may see,
// together with the groups relevant to that subset.
//
// Filters are conjunctive and each empty set imposes no constraint:
//
//  1. included groups: keep bookmarks whose group is in the set
//  2. excluded groups: drop bookmarks whose group is in the set; ungrouped
//     bookmarks are never dropped by this rule
//  3. included environments: keep bookmarks whose environment is in the set
//     or unset (an unset environment is always visible)
//  4. included tags: keep bookmarks with at least one exact tag match,
//     evaluated against the parsed tag list
//
// The returned bookmarks are ordered by the containing group's sort order
// (ungrouped last), then by title. The returned groups are the distinct
// groups referenced by the result, or the explicit included-groups set when
// that filter is non-empty. Inputs are never mutated.
func FilterBookmarks(f model.ShareFilter, bookmarks []model.Bookmark, groups []model.Group) ([]model.Bookmark, []model.Group) {
	included := toSet(f.IncludedGroups)
	excluded := toSet(f.ExcludedGroups)
	environments := toSet(f.IncludedEnvironments)
	tags := toSet(f.IncludedTags)

	groupsByID := make(map[string]model.Group, len(groups))
	for _, g := range groups {
		groupsByID[g.ID] = g
	}

	out := make([]model.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if len(included) > 0 && !included[b.GroupID] {
			continue
		}
		if len(excluded) > 0 && b.GroupID != "" && excluded[b.GroupID] {
			continue
		}
		if len(environments) > 0 && b.Environment != "" && !environments[b.Environment] {
			continue
		}
		if len(tags) > 0 && !hasAnyTag(&b, tags) {
			continue
		}
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := groupSortKey(groupsByID, out[i].GroupID), groupSortKey(groupsByID, out[j].GroupID)
		if oi != oj {
			return oi < oj
		}
		return out[i].Title < out[j].Title
	})

	return out, relevantGroups(f.IncludedGroups, out, groups, groupsByID)
}

// relevantGroups picks the groups to ship alongside a filtered bookmark set:
// the explicit included-groups set when non-empty, otherwise the distinct
// groups the surviving bookmarks reference.
func relevantGroups(includedGroups []string, filtered []model.Bookmark, groups []model.Group, byID map[string]model.Group) []model.Group {
	wanted := make(map[string]bool)
	if len(includedGroups) > 0 {
		for _, id := range includedGroups {
			wanted[id] = true
		}
	} else {
		for _, b := range filtered {
			if b.GroupID != "" {
				wanted[b.GroupID] = true
			}
		}
	}

	out := make([]model.Group, 0, len(wanted))
	for _, g := range groups {
		if wanted[g.ID] {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// groupSortKey orders bookmarks by their group's sort order. Ungrouped
// bookmarks (or bookmarks pointing at a vanished group) sort last.
func groupSortKey(byID map[string]model.Group, groupID string) int {
	if g, ok := byID[groupID]; ok {
		return g.SortOrder
	}
	return int(^uint(0) >> 1)
}

func hasAnyTag(b *model.Bookmark, wanted map[string]bool) bool {
	for _, t := range b.Tags {
		if wanted[t] {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = true
		}
	}
	return set
}
