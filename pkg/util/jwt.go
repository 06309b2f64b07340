package util

import (
	"errors"
	"sync"
	"time"

	"LinkChat/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 访问令牌载荷。
// 对外只携带用户 uuid，其他信息按需从存储查询。
type Claims struct {
	UserUUID string `json:"user_uuid"`
	jwt.RegisteredClaims
}

var (
	jwtCfg     config.JWTConfig
	jwtCfgOnce sync.Once
)

// InitJWT 注入 JWT 配置（进程启动时调用一次，重复调用无效）。
func InitJWT(cfg config.JWTConfig) {
	jwtCfgOnce.Do(func() {
		jwtCfg = cfg
	})
}

// ErrTokenInvalid 表示 token 解析失败、签名不合法或已过期。
var ErrTokenInvalid = errors.New("token is invalid")

// GenerateToken 为指定用户签发访问令牌。
func GenerateToken(userUUID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserUUID: userUUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtCfg.AccessTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtCfg.Secret))
}

// ParseToken 解析并校验访问令牌。
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserUUID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
