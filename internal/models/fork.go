package models

// ForkOptions selects which subset of a source conversation's messages seeds a
// fork. When no selection flag is set, the full message list is copied
// (IncludeAllBranches behavior).
type ForkOptions struct {
	// MessageID anchors VisibleMessagesOnly slicing. Unknown ids fall back to
	// the full message list.
	MessageID string `json:"message_id,omitempty"`

	// IncludeAllBranches copies every message. This is the default.
	IncludeAllBranches bool `json:"include_all_branches,omitempty"`

	// VisibleMessagesOnly slices the direct path up to MessageID, or from it
	// when StartFromMessage is set.
	VisibleMessagesOnly bool `json:"visible_messages_only,omitempty"`

	// StartFromMessage flips the VisibleMessagesOnly slice to run from
	// MessageID to the end instead of from the start to MessageID.
	StartFromMessage bool `json:"start_from_message,omitempty"`
}
