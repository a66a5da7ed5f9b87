package chat

import "time"

// ApplicationSummary is the public response shape: internal id stays hidden,
// the token is the externally visible identifier.
type ApplicationSummary struct {
	Name       string `json:"name"`
	Token      string `json:"token"`
	ChatsCount int64  `json:"chats_count"`
}

type ChatView struct {
	Number        int64     `json:"number"`
	MessagesCount int64     `json:"messages_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type MessageView struct {
	Number    int64     `json:"number"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func summarize(app *Application) *ApplicationSummary {
	return &ApplicationSummary{
		Name:       app.Name,
		Token:      app.Token,
		ChatsCount: app.ChatsCount,
	}
}

func chatView(c *Chat) *ChatView {
	return &ChatView{
		Number:        c.Number,
		MessagesCount: c.MessagesCount,
		CreatedAt:     c.CreatedAt,
	}
}

func messageView(m *Message) *MessageView {
	return &MessageView{
		Number:    m.Number,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}
