// Package repository 进程内数据访问层
//
// 所有实体只存活于进程生命周期内，底层使用 go-cache（关闭过期）作为
// 并发安全的键值存储；按外键过滤为全量扫描，在本服务的规模下足够。
package repository

import (
	"errors"

	gocache "github.com/patrickmn/go-cache"
)

// ErrNotFound 查询未命中
// 仓库层唯一的失败形态，由调用方转换为 400/404 响应
var ErrNotFound = errors.New("record not found")

// newStore 创建一个不过期的内存存储
func newStore() *gocache.Cache {
	return gocache.New(gocache.NoExpiration, 0)
}
