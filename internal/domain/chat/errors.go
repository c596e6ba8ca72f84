package chat

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotMember            = errors.New("not a conversation member")
	ErrCannotChatSelf       = errors.New("cannot start chat with yourself")
	ErrEmptyMessage         = errors.New("message body is empty")
)
