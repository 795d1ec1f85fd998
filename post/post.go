// Package post defines the shared content vocabulary of the board:
// entity type tags, statuses and the metadata key names under which
// denormalized counters live.
//
// Every forum entity is a generic content item (pkg/contentstore)
// distinguished by these tags. The constants are the storage contract;
// changing one orphans existing rows.
package post

// Entity type tags.
const (
	TypeForum = "forum"
	TypeTopic = "topic"
	TypeReply = "reply"
)

// Statuses. Publish is the open, visible state; the rest gate
// visibility or writability.
const (
	StatusPublish  = "publish"
	StatusClosed   = "closed"
	StatusSpam     = "spam"
	StatusTrash    = "trash"
	StatusPending  = "pending"
	StatusPrivate  = "private"
	StatusHidden   = "hidden"
	StatusArchived = "archived"
)

// PublicTopicStatuses lists the topic statuses that count toward
// forum totals. Closed topics remain countable and readable; they
// just refuse new replies.
func PublicTopicStatuses() []string {
	return []string{StatusPublish, StatusClosed}
}

// PublicReplyStatuses lists the reply statuses that count toward
// topic totals.
func PublicReplyStatuses() []string {
	return []string{StatusPublish}
}

// Item meta keys.
const (
	MetaTopicReplyCount   = "_topic_reply_count"
	MetaTopicVoiceCount   = "_topic_voice_count"
	MetaTopicVoices       = "_topic_voices"
	MetaTopicLastReplyID  = "_topic_last_reply_id"
	MetaTopicActivityTime = "_topic_activity_datetime"
	MetaTopicActivityUnix = "_topic_activity_datetime_epoch"
	MetaTopicType         = "_topic_type"

	MetaForumTopicCount   = "_forum_topic_count"
	MetaForumReplyCount   = "_forum_reply_count"
	MetaForumLastTopicID  = "_forum_last_topic_id"
	MetaForumActivityTime = "_forum_activity_datetime"
	MetaForumActivityUnix = "_forum_activity_datetime_epoch"
	MetaForumType         = "_forum_type"
)

// User meta keys.
const (
	MetaUserTopicSubscriptions = "_user_topic_subscriptions"
	MetaUserForumSubscriptions = "_user_forum_subscriptions"
	MetaUserTopicBookmarks     = "_user_topic_bookmarks"
	MetaUserTopicCount         = "_user_topic_count"
	MetaUserReplyCount         = "_user_reply_count"
)

// Global option names.
const (
	OptionStickyTopics      = "board_sticky_topics"
	OptionSuperStickyTopics = "board_super_sticky_topics"
	OptionDefaultForum      = "board_default_forum"
	OptionDefaultRole       = "board_default_role"
)

// Forum type values stored under MetaForumType. Categories group
// child forums and never hold topics directly.
const (
	ForumTypeForum    = "forum"
	ForumTypeCategory = "category"
)
