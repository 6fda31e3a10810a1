package repository

import (
	"context"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"memchat/internal/model"
	"memchat/internal/pkg/id"
)

// MessageRepo 消息仓库
type MessageRepo struct {
	store *gocache.Cache
}

// NewMessageRepo 创建消息仓库
func NewMessageRepo() *MessageRepo {
	return &MessageRepo{store: newStore()}
}

// Create 创建消息
// 分配新 ID，Timestamp 置为当前时间；消息创建后不可变
func (r *MessageRepo) Create(ctx context.Context, msg *model.Message) *model.Message {
	created := *msg
	created.ID = id.New()
	created.Timestamp = time.Now()
	r.store.Set(created.ID, &created, gocache.NoExpiration)
	return &created
}

// ListByConversationID 查询对话的消息，按 Timestamp 升序
// 零值时间排在最前
func (r *MessageRepo) ListByConversationID(ctx context.Context, convID string) []*model.Message {
	var msgs []*model.Message
	for _, item := range r.store.Items() {
		msg := item.Object.(*model.Message)
		if msg.ConversationID == convID {
			msgs = append(msgs, msg)
		}
	}

	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	return msgs
}

// DeleteByConversationID 删除对话的全部消息，返回删除数量
func (r *MessageRepo) DeleteByConversationID(ctx context.Context, convID string) int {
	deleted := 0
	for key, item := range r.store.Items() {
		if item.Object.(*model.Message).ConversationID == convID {
			r.store.Delete(key)
			deleted++
		}
	}
	return deleted
}
