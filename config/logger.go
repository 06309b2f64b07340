package config

// LoggerConfig 日志组件配置。
type LoggerConfig struct {
	Level            string   `json:"level" yaml:"level"`                       // 日志级别: debug/info/warn/error
	Encoding         string   `json:"encoding" yaml:"encoding"`                 // 编码格式: json/console
	EnableColor      bool     `json:"enableColor" yaml:"enableColor"`           // console 模式下是否启用彩色等级
	Development      bool     `json:"development" yaml:"development"`           // 开发模式（error 级别附带堆栈）
	OutputPaths      []string `json:"outputPaths" yaml:"outputPaths"`           // 普通日志输出位置
	ErrorOutputPaths []string `json:"errorOutputPaths" yaml:"errorOutputPaths"` // 错误日志输出位置
}

// DefaultLoggerConfig 返回本地开发的默认配置。
// 容器场景输出到 stdout/stderr，由 docker logs 统一收集。
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:            "info",
		Encoding:         "json",
		EnableColor:      false,
		Development:      false,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}
