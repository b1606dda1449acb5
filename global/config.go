package global

import (
	"context"

	mgoutil "QGuard/data/database/mgo/mongoutil"
	"QGuard/logger"
	mgoSrv "QGuard/service/mgo"
	redis "QGuard/service/storage/redis"
	ids "QGuard/tools/ids"
)

// ConfigAll 按配置初始化各基础设施单例。
// 只初始化选中的存储后端；总线和网关由 main 显式装配。
func ConfigAll(ctx context.Context, cfg *AppConfig) error {
	ConfigIds(cfg.NodeID)

	switch cfg.Storage.Backend {
	case "redis":
		return ConfigRedis(cfg.Storage.Redis)
	case "mongo":
		ConfigMgo(ctx, cfg.Storage.Mongo)
		return nil
	case "postgres":
		// pg 连接池由 store 构造时建立
		return nil
	default:
		logger.Warnf("[config] unknown storage backend %q, falling back to redis", cfg.Storage.Backend)
		return ConfigRedis(cfg.Storage.Redis)
	}
}

func ConfigIds(nodeID int64) {
	ids.SetNodeID(nodeID)
}

func ConfigRedis(cfg redis.Config) error {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if err := redis.InitRedis(cfg); err != nil {
		return err
	}
	return nil
}

// ConfigMgo 在后台 goroutine 中启动 Mongo 连接（带退避重连）。
func ConfigMgo(ctx context.Context, cfg mgoutil.Config) {
	mgoSrv.StartAsync(ctx, &cfg)
	if err := mgoSrv.WaitReady(ctx, mgoSrv.Manager()); err != nil {
		logger.Errorf("[config] mongo not ready: %v", err)
	}
}
