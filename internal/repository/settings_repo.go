package repository

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"memchat/internal/model"
	"memchat/internal/pkg/id"
)

// SettingsRepo 设置仓库
// 以 UserID 为键，保证每个用户至多一条设置记录；对同一用户重复
// Create 会整体替换旧记录
type SettingsRepo struct {
	store *gocache.Cache
}

// NewSettingsRepo 创建设置仓库
func NewSettingsRepo() *SettingsRepo {
	return &SettingsRepo{store: newStore()}
}

// Create 创建设置，分配新 ID 并为缺省字段填入默认值
func (r *SettingsRepo) Create(ctx context.Context, settings *model.Settings) *model.Settings {
	created := *settings
	created.ID = id.New()
	applyDefaults(&created)
	r.store.Set(created.UserID, &created, gocache.NoExpiration)
	return &created
}

// FindByUserID 根据用户 ID 查询
func (r *SettingsRepo) FindByUserID(ctx context.Context, userID string) (*model.Settings, error) {
	v, found := r.store.Get(userID)
	if !found {
		return nil, ErrNotFound
	}
	return v.(*model.Settings), nil
}

// Update 部分更新设置，nil 字段保持原值
func (r *SettingsRepo) Update(ctx context.Context, userID string, update *model.UpdateSettings) (*model.Settings, error) {
	v, found := r.store.Get(userID)
	if !found {
		return nil, ErrNotFound
	}

	updated := *v.(*model.Settings)
	if update.MemuAPIKey != nil {
		updated.MemuAPIKey = update.MemuAPIKey
	}
	if update.OpenAIAPIKey != nil {
		updated.OpenAIAPIKey = update.OpenAIAPIKey
	}
	if update.Temperature != nil {
		updated.Temperature = *update.Temperature
	}
	if update.MaxTokens != nil {
		updated.MaxTokens = *update.MaxTokens
	}
	if update.Model != nil {
		updated.Model = *update.Model
	}
	if update.AutoMemoryStorage != nil {
		updated.AutoMemoryStorage = *update.AutoMemoryStorage
	}
	if update.ContextAwareResponses != nil {
		updated.ContextAwareResponses = *update.ContextAwareResponses
	}
	if update.UserIdentifier != nil {
		updated.UserIdentifier = *update.UserIdentifier
	}

	r.store.Set(userID, &updated, gocache.NoExpiration)
	return &updated, nil
}

// applyDefaults 为缺省字段填入默认值
func applyDefaults(s *model.Settings) {
	if s.Temperature == "" {
		s.Temperature = model.DefaultTemperature
	}
	if s.MaxTokens == "" {
		s.MaxTokens = model.DefaultMaxTokens
	}
	if s.Model == "" {
		s.Model = model.DefaultModel
	}
	if s.AutoMemoryStorage == "" {
		s.AutoMemoryStorage = "true"
	}
	if s.ContextAwareResponses == "" {
		s.ContextAwareResponses = "true"
	}
	if s.UserIdentifier == "" {
		s.UserIdentifier = model.DefaultUserIdentifier
	}
}
