package global

import (
	"os"

	"gopkg.in/yaml.v3"

	mgoutil "QGuard/data/database/mgo/mongoutil"
	redis "QGuard/service/storage/redis"
	"QGuard/tools/errs"
)

// NatsConfig NATS 总线配置
type NatsConfig struct {
	Servers []string `yaml:"servers"`
	Name    string   `yaml:"name"`
}

// GatewayConfig OneBot 反向 WS 网关配置
type GatewayConfig struct {
	Port        int    `yaml:"port"`         // http 启动端口
	Path        string `yaml:"path"`         // ws 路径，默认 /onebot/v11/ws
	AccessToken string `yaml:"access_token"` // OneBot 握手令牌，空=不校验
}

// StatusConfig 只读状态接口
type StatusConfig struct {
	Enable bool   `yaml:"enable"`
	Secret string `yaml:"secret"` // JWT HMAC 密钥
}

// StorageConfig 表存储后端，backend: redis | mongo | postgres
type StorageConfig struct {
	Backend     string         `yaml:"backend"`
	Redis       redis.Config   `yaml:"redis"`
	Mongo       mgoutil.Config `yaml:"mongo"`
	PostgresDSN string         `yaml:"postgres_dsn"`
}

type AppConfig struct {
	NodeID          int64         `yaml:"node_id"`
	Superusers      []string      `yaml:"superusers"` // 超级用户 QQ 号
	WithdrawDelayMS int64         `yaml:"withdraw_delay_ms"`
	Gateway         GatewayConfig `yaml:"gateway"`
	Status          StatusConfig  `yaml:"status"`
	Storage         StorageConfig `yaml:"storage"`
	Nats            NatsConfig    `yaml:"nats"`
}

// LoadAppConfig 读取 YAML 配置并填默认值。
func LoadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WrapMsg(err, "read config", "path", path)
	}
	cfg := &AppConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.WrapMsg(err, "parse config", "path", path)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *AppConfig) setDefaults() {
	if c.NodeID == 0 {
		c.NodeID = 1
	}
	if c.WithdrawDelayMS == 0 {
		c.WithdrawDelayMS = 60_000
	}
	if c.Gateway.Port == 0 {
		c.Gateway.Port = 8086
	}
	if c.Gateway.Path == "" {
		c.Gateway.Path = "/onebot/v11/ws"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "redis"
	}
	if len(c.Nats.Servers) == 0 {
		c.Nats.Servers = []string{"nats://127.0.0.1:4222"}
	}
	if c.Nats.Name == "" {
		c.Nats.Name = "qguard"
	}
}
