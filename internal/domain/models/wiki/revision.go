package wiki

import (
	"net/netip"
	"time"
)

// Editor identifies who made a revision: a named account or an IP address.
type Editor struct {
	Username    string `json:"username,omitempty"`
	IP          string `json:"ip,omitempty"`
	IsAnonymous bool   `json:"is_anonymous"`
	Hidden      bool   `json:"hidden,omitempty"` // user suppressed upstream
}

// hiddenEditorKey groups all suppressed identities together
const hiddenEditorKey = "(hidden)"

// NamedEditor builds an editor for a registered account
func NamedEditor(username string) Editor {
	return Editor{Username: username}
}

// AnonymousEditor builds an editor identified by IP address
func AnonymousEditor(ip string) Editor {
	return Editor{IP: ip, IsAnonymous: true}
}

// EditorFromUser classifies a raw upstream user string. The anon flag wins;
// otherwise a string that parses as an IP address is treated as anonymous.
func EditorFromUser(user string, anon bool) Editor {
	if user == "" {
		return Editor{Hidden: true}
	}
	if anon {
		return AnonymousEditor(user)
	}
	if _, err := netip.ParseAddr(user); err == nil {
		return AnonymousEditor(user)
	}
	return NamedEditor(user)
}

// Key is the grouping identity: username, or IP for anonymous editors.
func (e Editor) Key() string {
	switch {
	case e.Hidden:
		return hiddenEditorKey
	case e.IsAnonymous:
		return e.IP
	default:
		return e.Username
	}
}

// Revision is one immutable entry of an article's history.
type Revision struct {
	ID          int64     `json:"id"`
	ParentID    int64     `json:"parent_id"` // 0 for the first revision
	Timestamp   time.Time `json:"timestamp"`
	Editor      Editor    `json:"editor"`
	Size        int       `json:"size"`
	ByteDelta   int       `json:"byte_delta"`
	Comment     string    `json:"comment,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"` // empty when suppressed upstream
}

// RevertEdge links a reverting revision to the revision whose content it restored.
type RevertEdge struct {
	RevertingID   int64 `json:"reverting_revision_id"`
	RevertedToID  int64 `json:"reverted_to_revision_id"`
	RevertedCount int   `json:"reverted_count"` // revisions discarded between target and revert
}

// RevertDetection is the detector output over one revision sequence.
type RevertDetection struct {
	Edges    []RevertEdge    `json:"edges"`
	IsRevert map[int64]bool  `json:"-"`
	Targets  map[int64]int64 `json:"-"`
}

// Reverts reports whether the revision with the given id is a revert.
func (d RevertDetection) Reverts(id int64) bool {
	return d.IsRevert[id]
}
