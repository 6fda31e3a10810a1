package repository

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"memchat/internal/model"
	"memchat/internal/pkg/id"
)

// UserRepo 用户仓库
type UserRepo struct {
	store *gocache.Cache
}

// NewUserRepo 创建用户仓库
func NewUserRepo() *UserRepo {
	return &UserRepo{store: newStore()}
}

// Create 创建用户，分配新 ID 并返回完整记录
func (r *UserRepo) Create(ctx context.Context, user *model.User) *model.User {
	created := *user
	created.ID = id.New()
	r.store.Set(created.ID, &created, gocache.NoExpiration)
	return &created
}

// FindByID 根据 ID 查询
func (r *UserRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	v, found := r.store.Get(userID)
	if !found {
		return nil, ErrNotFound
	}
	return v.(*model.User), nil
}

// FindByUsername 根据用户名查询（全量扫描，取第一个命中）
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, item := range r.store.Items() {
		user := item.Object.(*model.User)
		if user.Username == username {
			return user, nil
		}
	}
	return nil, ErrNotFound
}
