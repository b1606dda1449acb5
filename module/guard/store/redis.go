package store

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	redismgr "QGuard/service/storage/redis"
	"QGuard/tools/errs"
)

const redisKeyPrefix = "qguard:table:"

// Redis 每张表存一个 JSON 字符串。
type Redis struct {
	client *goredis.Client
}

// NewRedis 使用全局单例客户端（global.ConfigRedis 先初始化）。
func NewRedis() *Redis {
	return &Redis{client: redismgr.GetRedis()}
}

func NewRedisWithClient(c *goredis.Client) *Redis {
	return &Redis{client: c}
}

func (r *Redis) Load(ctx context.Context, table string) ([]byte, error) {
	val, err := r.client.Get(ctx, redisKeyPrefix+table).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "redis load table", "table", table)
	}
	return val, nil
}

func (r *Redis) Save(ctx context.Context, table string, doc []byte) error {
	if err := r.client.Set(ctx, redisKeyPrefix+table, doc, 0).Err(); err != nil {
		return errs.WrapMsg(err, "redis save table", "table", table)
	}
	return nil
}
