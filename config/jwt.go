package config

import (
	"os"
	"time"
)

// JWTConfig 访问令牌配置。
// Secret 必须通过环境变量注入生产值，默认值仅用于本地开发。
type JWTConfig struct {
	Secret         string        `json:"secret" yaml:"secret"`
	Issuer         string        `json:"issuer" yaml:"issuer"`
	AccessTokenTTL time.Duration `json:"accessTokenTtl" yaml:"accessTokenTtl"`
}

// DefaultJWTConfig 返回本地开发的默认配置。
func DefaultJWTConfig() JWTConfig {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "linkchat-dev-secret"
	}
	return JWTConfig{
		Secret:         secret,
		Issuer:         "linkchat",
		AccessTokenTTL: 7 * 24 * time.Hour,
	}
}
