package role

// Primitive capabilities. These are the grants stored on roles; the
// object-aware checks in Resolver reduce to one or more of them.
const (
	// Board-wide gates.
	CapSpectate    = "spectate"    // read public content
	CapParticipate = "participate" // post at all
	CapModerate    = "moderate"    // run moderation actions
	CapThrottle    = "throttle"    // exempt from flood control
	CapViewTrash   = "view_trash"  // see trashed and spammed content
	CapKeepGate    = "keep_gate"   // administer settings and roles

	// Forums.
	CapPublishForums     = "publish_forums"
	CapEditForums        = "edit_forums"
	CapDeleteForums      = "delete_forums"
	CapReadPrivateForums = "read_private_forums"
	CapReadHiddenForums  = "read_hidden_forums"

	// Topics.
	CapPublishTopics      = "publish_topics"
	CapEditTopics         = "edit_topics"
	CapEditOthersTopics   = "edit_others_topics"
	CapDeleteTopics       = "delete_topics"
	CapDeleteOthersTopics = "delete_others_topics"

	// Replies.
	CapPublishReplies      = "publish_replies"
	CapEditReplies         = "edit_replies"
	CapEditOthersReplies   = "edit_others_replies"
	CapDeleteReplies       = "delete_replies"
	CapDeleteOthersReplies = "delete_others_replies"
)

// DoNotAllow is the resolution sentinel: when a decision rule reduces
// to it the action is denied for everyone, keymasters included. It is
// never granted to any role.
const DoNotAllow = "do_not_allow"

func keymasterCaps() map[string]bool {
	caps := moderatorCaps()
	caps[CapKeepGate] = true
	caps[CapPublishForums] = true
	caps[CapEditForums] = true
	caps[CapDeleteForums] = true
	return caps
}

func moderatorCaps() map[string]bool {
	caps := participantCaps()
	caps[CapModerate] = true
	caps[CapThrottle] = true
	caps[CapViewTrash] = true
	caps[CapReadPrivateForums] = true
	caps[CapReadHiddenForums] = true
	caps[CapEditOthersTopics] = true
	caps[CapDeleteTopics] = true
	caps[CapDeleteOthersTopics] = true
	caps[CapEditOthersReplies] = true
	caps[CapDeleteReplies] = true
	caps[CapDeleteOthersReplies] = true
	return caps
}

func participantCaps() map[string]bool {
	return map[string]bool{
		CapSpectate:       true,
		CapParticipate:    true,
		CapPublishTopics:  true,
		CapEditTopics:     true,
		CapPublishReplies: true,
		CapEditReplies:    true,
	}
}

func spectatorCaps() map[string]bool {
	return map[string]bool{
		CapSpectate: true,
	}
}

// blockedCaps deny everything explicitly rather than by omission, so
// an additive capability filter cannot hand a blocked user anything
// back.
func blockedCaps() map[string]bool {
	caps := keymasterCaps()
	for name := range caps {
		caps[name] = false
	}
	return caps
}
