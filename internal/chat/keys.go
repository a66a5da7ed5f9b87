package chat

import (
	"fmt"
	"time"
)

// Variant selects the cached response shape. Summary is the public API body,
// Full is the raw row used internally between services.
type Variant string

const (
	VariantSummary Variant = "summary"
	VariantFull    Variant = "full"
)

const (
	createTTL = 5 * time.Minute
	readTTL   = 2 * time.Minute
)

func appTokenKey(token string, v Variant) string {
	return fmt.Sprintf("application:token:%s:%s", token, v)
}

// appIDRefKey stores the name of the canonical token key, so an id lookup
// resolves through one indirection instead of duplicating the value.
func appIDRefKey(id uint64, v Variant) string {
	return fmt.Sprintf("application:id:%d:%s", id, v)
}

func appListKey(p PageParams) string {
	return fmt.Sprintf("applications:page:%d:limit:%d", p.Page, p.Limit)
}

func chatKey(token string, number int64) string {
	return fmt.Sprintf("chats:%s:number:%d", token, number)
}

func chatListKey(token string, p PageParams) string {
	return fmt.Sprintf("chats:%s:page:%d:limit:%d", token, p.Page, p.Limit)
}

func messageListKey(token string, chatNumber int64, p PageParams, sort string) string {
	return fmt.Sprintf("messages:%s:%d:page:%d:limit:%d:sort:%s", token, chatNumber, p.Page, p.Limit, sort)
}

// chatListPrefix covers the single-chat key and every chat listing page.
func chatListPrefix(token string) string {
	return fmt.Sprintf("chats:%s:", token)
}

func messageListPrefix(token string, chatNumber int64) string {
	return fmt.Sprintf("messages:%s:%d:", token, chatNumber)
}

func messagesPrefix(token string) string {
	return fmt.Sprintf("messages:%s:", token)
}

// ChatsCountKey is the counter cache key for an application's chat count.
func ChatsCountKey(token string) string {
	return fmt.Sprintf("app:%s:chats_count", token)
}

// MessagesCountKey is the counter cache key for a chat's message count.
func MessagesCountKey(token string, chatNumber int64) string {
	return fmt.Sprintf("app:%s:chat:%d:messages_count", token, chatNumber)
}

// counterPrefix covers every counter under one application subtree.
func counterPrefix(token string) string {
	return fmt.Sprintf("app:%s:", token)
}
