package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName 配置文件名，位于数据根目录下
const ConfigFileName = "config.yaml"

// Config 应用配置
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Intake   IntakeConfig   `yaml:"intake"`
	Codec    CodecConfig    `yaml:"codec"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Path 数据库文件路径，留空表示使用数据根目录下的 chatvault.db
	Path string `yaml:"path"`
}

// IntakeConfig 收件目录配置
type IntakeConfig struct {
	// Dir 收件目录，其中的 *.chat 文件会被自动导入
	// 留空表示使用数据根目录下的 intake/
	Dir string `yaml:"dir"`
}

// CodecConfig 序列化配置
type CodecConfig struct {
	// FormatVersion 写出转写文件时使用的格式版本
	// 0 表示使用当前版本
	FormatVersion int `yaml:"format_version"`
}

// NewConfig 创建配置
// 先取默认值，若数据根目录下存在 config.yaml 则覆盖
func NewConfig() *Config {
	cfg := defaultConfig()

	path := filepath.Join(GetDataDir(), ConfigFileName)
	if err := loadFromFile(cfg, path); err != nil && !os.IsNotExist(err) {
		// 配置文件损坏时退回默认值，不中断启动
		cfg = defaultConfig()
	}

	cfg.applyDefaults()
	return cfg
}

func defaultConfig() *Config {
	return &Config{}
}

// loadFromFile 从 YAML 文件加载配置
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}
	return nil
}

// applyDefaults 填充留空的路径项
func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(GetDataDir(), "chatvault.db")
	}
	if c.Intake.Dir == "" {
		c.Intake.Dir = filepath.Join(GetDataDir(), "intake")
	}
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewIntakeConfig 创建收件目录配置
func NewIntakeConfig(cfg *Config) *IntakeConfig {
	return &cfg.Intake
}

// NewCodecConfig 创建序列化配置
func NewCodecConfig(cfg *Config) *CodecConfig {
	return &cfg.Codec
}
