// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
// 它在启动时构造一次，随后显式传入各个组件，不使用全局变量。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Media    MediaConfig    `mapstructure:"media"`
	LLM      LLMConfig      `mapstructure:"llm"`
	STT      STTConfig      `mapstructure:"stt"`
	TTS      TTSConfig      `mapstructure:"tts"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储会话令牌相关的配置。
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// MediaConfig 存储静态资源相关的路径配置。
// AssetsDir 是随仓库打包的图片/音频源目录，StaticDir 是对外提供服务的静态目录，
// TemplatesGlob 指向 HTML 模板。合成的语音写入 StaticDir 下的 temp 子目录。
type MediaConfig struct {
	AssetsDir     string `mapstructure:"assets_dir"`
	StaticDir     string `mapstructure:"static_dir"`
	TemplatesGlob string `mapstructure:"templates_glob"`
}

// TempDir 返回合成语音文件的落盘目录。
func (m MediaConfig) TempDir() string {
	return filepath.Join(m.StaticDir, "temp")
}

// LLMConfig 存储大语言模型服务的配置。
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数（可选，零值表示使用服务端默认）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// STTConfig 存储语音转文字服务的配置。
type STTConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// TTSConfig 存储语音合成服务的配置。
type TTSConfig struct {
	AppKey     string `mapstructure:"app_key"`
	AccessKey  string `mapstructure:"access_key"`
	Endpoint   string `mapstructure:"endpoint"`
	Format     string `mapstructure:"format"`
	SampleRate int    `mapstructure:"sample_rate"`
}

// Load 从指定路径读取 YAML 配置并解析，再用环境变量覆盖各外部服务的密钥。
// 密钥缺失不是加载错误：调用方负责告警，请求阶段才会真正失败。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}

	// 外部服务凭证统一从进程环境变量读取，优先于配置文件。
	if val := os.Getenv("LLM_API_KEY"); val != "" {
		conf.LLM.APIKey = val
	}
	if val := os.Getenv("STT_API_KEY"); val != "" {
		conf.STT.APIKey = val
	}
	if val := os.Getenv("TTS_APP_KEY"); val != "" {
		conf.TTS.AppKey = val
	}
	if val := os.Getenv("TTS_ACCESS_KEY"); val != "" {
		conf.TTS.AccessKey = val
	}

	return &conf, nil
}

// MissingCredentials 返回未配置的外部服务凭证名称，供启动阶段打印警告。
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if c.STT.APIKey == "" {
		missing = append(missing, "STT_API_KEY")
	}
	if c.TTS.AppKey == "" {
		missing = append(missing, "TTS_APP_KEY")
	}
	if c.TTS.AccessKey == "" {
		missing = append(missing, "TTS_ACCESS_KEY")
	}
	return missing
}
