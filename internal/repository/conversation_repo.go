package repository

import (
	"context"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"memchat/internal/model"
	"memchat/internal/pkg/id"
)

// ConversationRepo 对话仓库
type ConversationRepo struct {
	store *gocache.Cache
}

// NewConversationRepo 创建对话仓库
func NewConversationRepo() *ConversationRepo {
	return &ConversationRepo{store: newStore()}
}

// Create 创建对话
// 分配新 ID，LastActivity 置为当前时间
func (r *ConversationRepo) Create(ctx context.Context, conv *model.Conversation) *model.Conversation {
	created := *conv
	created.ID = id.New()
	created.LastActivity = time.Now()
	r.store.Set(created.ID, &created, gocache.NoExpiration)
	return &created
}

// FindByID 根据 ID 查询
func (r *ConversationRepo) FindByID(ctx context.Context, convID string) (*model.Conversation, error) {
	v, found := r.store.Get(convID)
	if !found {
		return nil, ErrNotFound
	}
	return v.(*model.Conversation), nil
}

// ListByUserID 查询用户的对话列表，按 LastActivity 降序
// 零值时间排在最后（等价于"最早"）
func (r *ConversationRepo) ListByUserID(ctx context.Context, userID string) []*model.Conversation {
	var convs []*model.Conversation
	for _, item := range r.store.Items() {
		conv := item.Object.(*model.Conversation)
		if conv.UserID == userID {
			convs = append(convs, conv)
		}
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastActivity.After(convs[j].LastActivity)
	})
	return convs
}

// Update 部分更新对话，nil 字段保持原值
// 无论更新了什么，LastActivity 都刷新为当前时间
func (r *ConversationRepo) Update(ctx context.Context, convID string, update *model.UpdateConversation) (*model.Conversation, error) {
	v, found := r.store.Get(convID)
	if !found {
		return nil, ErrNotFound
	}

	updated := *v.(*model.Conversation)
	if update.Title != nil {
		updated.Title = *update.Title
	}
	if update.LastMessage != nil {
		updated.LastMessage = update.LastMessage
	}
	if update.MessageCount != nil {
		updated.MessageCount = update.MessageCount
	}
	updated.LastActivity = time.Now()

	r.store.Set(convID, &updated, gocache.NoExpiration)
	return &updated, nil
}

// Delete 删除对话，返回对话是否存在
// 关联消息的级联删除由 MessageRepo.DeleteByConversationID 完成
func (r *ConversationRepo) Delete(ctx context.Context, convID string) bool {
	_, found := r.store.Get(convID)
	if found {
		r.store.Delete(convID)
	}
	return found
}
