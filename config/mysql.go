package config

import (
	"fmt"
	"os"
	"time"
)

// MySQLConfig MySQL 连接配置。
// Replicas 非空时启用读写分离（写走主库，读走从库）。
type MySQLConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`

	// 只读从库 DSN 列表（可选）
	Replicas []string `json:"replicas" yaml:"replicas"`

	// 连接池配置
	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`       // 最大打开连接数
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`       // 最大空闲连接数
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"` // 连接最长存活时间
}

// DSN 拼接主库连接串。
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// DefaultMySQLConfig 返回本地开发的默认配置。
// 主机地址优先读取 MYSQL_HOST，与 docker-compose.yml 对齐。
func DefaultMySQLConfig() MySQLConfig {
	host := os.Getenv("MYSQL_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	password := os.Getenv("MYSQL_PASSWORD")
	if password == "" {
		password = "linkchat"
	}
	return MySQLConfig{
		Host:            host,
		Port:            3306,
		User:            "linkchat",
		Password:        password,
		Database:        "linkchat",
		MaxOpenConns:    100,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}
