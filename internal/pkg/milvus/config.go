package milvus

import (
	"errors"
	"time"
)

// Config Milvus 客户端配置
type Config struct {
	Address        string        `mapstructure:"address"`
	Database       string        `mapstructure:"database"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Address:        "localhost:19530",
		Database:       "default",
		DialTimeout:    10 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.New("milvus address is required")
	}
	if c.DialTimeout < 0 || c.RequestTimeout < 0 {
		return errors.New("milvus timeouts must not be negative")
	}
	return nil
}

// SetDefaults 填充默认值
func (c *Config) SetDefaults() {
	if c.Database == "" {
		c.Database = "default"
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}
