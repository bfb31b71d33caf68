package consts

// realtime channels
const (
	ChannelBroadcast        = "broadcast"
	ChannelDepartmentPrefix = "department:"
	ChannelUserPrefix       = "user:"
)

// realtime event types
const (
	EventPostCreated = "post_created"
	EventTagged      = "tagged"
)

// notification events
const (
	NotifyPostTagged       = "post_tagged"
	NotifyPostReacted      = "post_reacted"
	NotifyPostCommented    = "post_commented"
	NotifyCommentReplied   = "comment_replied"
	NotifyCommentReacted   = "comment_reacted"
	NotifyNewPostBroadcast = "new_post_broadcast"
	NotifyPostMention      = "post_mention"
)

// gin context keys
const (
	UserIDKey = "user_id"
	RolesKey  = "roles"
	ViewerKey = "viewer"
)

func DepartmentChannel(department string) string {
	return ChannelDepartmentPrefix + department
}

func UserChannel(userID string) string {
	return ChannelUserPrefix + userID
}
