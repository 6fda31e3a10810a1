package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	AI     AIConfig     `mapstructure:"ai"`
	Memory MemoryConfig `mapstructure:"memory"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AIConfig 补全服务配置
// API Key、模型名、采样参数均来自各用户的 Settings，这里只配置
// 服务级的 Provider 与 Base URL
type AIConfig struct {
	Provider string `mapstructure:"provider"` // openai / azure / ark
	BaseURL  string `mapstructure:"base_url"` // 用于代理或兼容 API
}

// MemoryConfig MemU 记忆服务配置
type MemoryConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	AgentID   string `mapstructure:"agent_id"`   // 写入记忆时的 agent 标识
	AgentName string `mapstructure:"agent_name"` // 写入记忆时的 agent 名称
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	validProviders := map[string]bool{"": true, "openai": true, "azure": true, "ark": true}
	if !validProviders[c.AI.Provider] {
		return errors.New("invalid ai provider, must be openai/azure/ark")
	}

	return nil
}
