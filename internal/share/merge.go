package share

import (
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
)

// Bookmark origins in a merged public view.
const (
	OriginShared   = "shared"
	OriginPersonal = "personal"
)

// MergedBookmark is one entry of the final public view: either a shared
// bookmark that survived filtering and hiding, or a personal bookmark from
// the session's overlay.
type MergedBookmark struct {
	model.Bookmark
	GroupName string `json:"groupName,omitempty"` // personal bookmarks group by name, not id
	Origin    string `json:"origin"`
}

// Merge layers a session's overlay over the filtered shared bookmark set.
//
// Shared bookmarks hidden by the overlay are dropped; the remainder is
// tagged shared-origin and followed by the overlay's personal bookmarks
// tagged personal-origin. Shared-first ordering is the presentation
// convention of the public view. The input slice is never mutated; a nil
// overlay passes the shared set through unchanged.
func Merge(shared []model.Bookmark, overlay *model.PersonalOverlay) []MergedBookmark {
	size := len(shared)
	if overlay != nil {
		size += len(overlay.PersonalBookmarks)
	}
	out := make([]MergedBookmark, 0, size)

	for _, b := range shared {
		if overlay != nil && overlay.IsHidden(b.ID) {
			continue
		}
		out = append(out, MergedBookmark{Bookmark: b, Origin: OriginShared})
	}

	if overlay == nil {
		return out
	}

	for _, p := range overlay.PersonalBookmarks {
		out = append(out, MergedBookmark{
			Bookmark: model.Bookmark{
				ID:          p.ID,
				Title:       p.Title,
				URL:         p.URL,
				Icon:        p.Icon,
				Environment: p.Environment,
				Tags:        p.Tags,
				CreatedAt:   p.CreatedAt,
			},
			GroupName: p.GroupName,
			Origin:    OriginPersonal,
		})
	}

	return out
}
