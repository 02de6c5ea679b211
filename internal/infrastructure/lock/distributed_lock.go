package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ============================================================================
// 分布式锁实现
// ============================================================================
//
// 加锁：SET key value NX PX timeout
//   - NX: 只有 key 不存在时才设置（互斥）
//   - PX: 过期时间（持有者崩溃时自动释放）
//   - value: 持有者标识，释放时校验
//
// 释放锁：Lua 脚本保证"检查+删除"原子性
//
// 余额行上的 SELECT ... FOR UPDATE 已经保证了同一用户的变更串行化，
// 这把锁只是多实例部署时挡在数据库前面的一层，减少行锁等待
// ============================================================================

var ErrLockFailed = errors.New("获取分布式锁失败")

const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁，只删除自己持有的锁
func (l *DistributedLock) Unlock(ctx context.Context) error {
	return l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Err()
}

// ============================================================================
// 按用户维度的余额变更锁
// ============================================================================

// UserLocker 为同一用户的充值/支付加锁，不同用户互不影响
type UserLocker struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
	maxRetries    int
}

const userLockRetryInterval = 50 * time.Millisecond

// NewUserLocker 等待时长不超过 ttl，至少尝试一次
func NewUserLocker(client *redis.Client, ttl time.Duration) *UserLocker {
	maxRetries := int(ttl / userLockRetryInterval)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &UserLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: userLockRetryInterval,
		maxRetries:    maxRetries,
	}
}

// LockUser 获取用户锁，返回释放函数
func (u *UserLocker) LockUser(ctx context.Context, userID int64) (func(), error) {
	l := NewDistributedLock(u.client, UserLockKey(userID), uuid.NewString(), u.ttl)
	if err := l.Lock(ctx, u.retryInterval, u.maxRetries); err != nil {
		return nil, err
	}
	return func() {
		// 使用独立 ctx，请求已取消时也要释放
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.Unlock(releaseCtx)
	}, nil
}

func UserLockKey(userID int64) string {
	return fmt.Sprintf("wallet:lock:user:%d", userID)
}
