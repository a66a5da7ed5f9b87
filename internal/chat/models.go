package chat

import "time"

// Public response shapes are the view types; these JSON tags exist for full
// cache round-trips and must keep every field.

type Application struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string `gorm:"type:varchar(50);not null" json:"name"`
	Token      string `gorm:"type:varchar(36);uniqueIndex;not null" json:"token"`
	ChatsCount int64  `gorm:"not null;default:0" json:"chats_count"`
	// ChatsSequence is the chat-number high-water mark. It only grows, so
	// numbers are never reused after deletes.
	ChatsSequence int64     `gorm:"not null;default:0" json:"chats_sequence"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Application) TableName() string { return "applications" }

type Chat struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Number        int64  `gorm:"not null;index:uniq_chat_app_number,unique,priority:2" json:"number"`
	ApplicationID uint64 `gorm:"not null;index:uniq_chat_app_number,unique,priority:1" json:"application_id"`
	MessagesCount int64  `gorm:"not null;default:0" json:"messages_count"`
	// MessagesSequence is the message-number high-water mark.
	MessagesSequence int64     `gorm:"not null;default:0" json:"messages_sequence"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Chat) TableName() string { return "chats" }

type Message struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Number        int64     `gorm:"not null;index:uniq_msg_chat_number,unique,priority:2" json:"number"`
	Body          string    `gorm:"type:text;not null" json:"body"`
	ChatID        uint64    `gorm:"not null;index:uniq_msg_chat_number,unique,priority:1" json:"chat_id"`
	ApplicationID uint64    `gorm:"not null;index" json:"application_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Message) TableName() string { return "messages" }
