package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repo is the persistent store adapter. MySQL is the system of record; all
// counters held here are mutated only inside transactions.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *Repo) CreateApplication(ctx context.Context, app *Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *Repo) FindApplicationByToken(ctx context.Context, token string) (*Application, error) {
	var app Application
	if err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&app).Error; err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

func (r *Repo) FindApplicationByID(ctx context.Context, id uint64) (*Application, error) {
	var app Application
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

func (r *Repo) ListApplications(ctx context.Context, p PageParams) ([]Application, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Application{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apps []Application
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(p.offset()).
		Limit(p.Limit).
		Find(&apps).Error; err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// UpdateApplicationName is a read-modify-write inside one transaction.
func (r *Repo) UpdateApplicationName(ctx context.Context, token, name string) (*Application, error) {
	var app Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&app).Error; err != nil {
			return notFound(err)
		}
		app.Name = name
		return tx.Save(&app).Error
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// DeleteApplicationByToken removes the application and all dependent chats and
// messages in one transaction. Returns the deleted row so callers can
// invalidate caches for the subtree.
func (r *Repo) DeleteApplicationByToken(ctx context.Context, token string) (*Application, error) {
	var app Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&app).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("application_id = ?", app.ID).Delete(&Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("application_id = ?", app.ID).Delete(&Chat{}).Error; err != nil {
			return err
		}
		return tx.Delete(&app).Error
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// CreateChat assigns the next chat number within the application scope. The
// number comes from the application's chats_sequence high-water mark, bumped
// inside the insert transaction. The UPDATE takes the parent row lock, so
// concurrent creators are serialized and each sees a distinct number; the
// sequence never decreases, so deleted numbers are never handed out again.
// The unique (application_id, number) index stays as a backstop.
func (r *Repo) CreateChat(ctx context.Context, applicationID uint64) (*Chat, error) {
	c := &Chat{ApplicationID: applicationID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Application{}).
			Where("id = ?", applicationID).
			UpdateColumn("chats_sequence", gorm.Expr("chats_sequence + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		var next int64
		if err := tx.Model(&Application{}).
			Where("id = ?", applicationID).
			Select("chats_sequence").
			Scan(&next).Error; err != nil {
			return err
		}
		c.Number = next
		return tx.Create(c).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repo) FindChat(ctx context.Context, applicationID uint64, number int64) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).
		Where("application_id = ? AND number = ?", applicationID, number).
		First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *Repo) ListChats(ctx context.Context, applicationID uint64, p PageParams) ([]Chat, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Chat{}).
		Where("application_id = ?", applicationID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var chats []Chat
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("number ASC").
		Offset(p.offset()).
		Limit(p.Limit).
		Find(&chats).Error; err != nil {
		return nil, 0, err
	}
	return chats, total, nil
}

// DeleteChat removes a chat and its messages and decrements the owning
// application's chats_count, all in one transaction.
func (r *Repo) DeleteChat(ctx context.Context, applicationID uint64, number int64) (*Chat, error) {
	var c Chat
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_id = ? AND number = ?", applicationID, number).
			First(&c).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("chat_id = ?", c.ID).Delete(&Message{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&c).Error; err != nil {
			return err
		}
		return tx.Model(&Application{}).
			Where("id = ? AND chats_count > 0", applicationID).
			UpdateColumn("chats_count", gorm.Expr("chats_count - 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateMessage assigns the next message number within the chat scope, same
// strategy as CreateChat via the chat's messages_sequence.
func (r *Repo) CreateMessage(ctx context.Context, applicationID, chatID uint64, body string) (*Message, error) {
	m := &Message{ChatID: chatID, ApplicationID: applicationID, Body: body}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Chat{}).
			Where("id = ?", chatID).
			UpdateColumn("messages_sequence", gorm.Expr("messages_sequence + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		var next int64
		if err := tx.Model(&Chat{}).
			Where("id = ?", chatID).
			Select("messages_sequence").
			Scan(&next).Error; err != nil {
			return err
		}
		m.Number = next
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repo) ListMessages(ctx context.Context, chatID uint64, p PageParams, sortDesc bool) ([]Message, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Message{}).
		Where("chat_id = ?", chatID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "number ASC"
	if sortDesc {
		order = "number DESC"
	}
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order(order).
		Offset(p.offset()).
		Limit(p.Limit).
		Find(&msgs).Error; err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func (r *Repo) CountChats(ctx context.Context, applicationID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Chat{}).
		Where("application_id = ?", applicationID).
		Count(&n).Error
	return n, err
}

func (r *Repo) CountMessages(ctx context.Context, chatID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("chat_id = ?", chatID).
		Count(&n).Error
	return n, err
}

// IncrementChatsCount applies one aggregated delta for an application token.
func (r *Repo) IncrementChatsCount(ctx context.Context, token string, delta int64) error {
	res := r.db.WithContext(ctx).Model(&Application{}).
		Where("token = ?", token).
		UpdateColumn("chats_count", gorm.Expr("chats_count + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementMessagesCount applies one aggregated delta for a chat, addressed by
// application token and chat number as carried in queue events.
func (r *Repo) IncrementMessagesCount(ctx context.Context, token string, chatNumber, delta int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app Application
		if err := tx.Where("token = ?", token).First(&app).Error; err != nil {
			return notFound(err)
		}
		res := tx.Model(&Chat{}).
			Where("application_id = ? AND number = ?", app.ID, chatNumber).
			UpdateColumn("messages_count", gorm.Expr("messages_count + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetChatsCount overwrites the stored aggregate, used by the lazy
// rehydration path to heal drift against the true row count.
func (r *Repo) SetChatsCount(ctx context.Context, applicationID uint64, n int64) error {
	return r.db.WithContext(ctx).Model(&Application{}).
		Where("id = ?", applicationID).
		UpdateColumn("chats_count", n).Error
}

func (r *Repo) SetMessagesCount(ctx context.Context, chatID uint64, n int64) error {
	return r.db.WithContext(ctx).Model(&Chat{}).
		Where("id = ?", chatID).
		UpdateColumn("messages_count", n).Error
}
