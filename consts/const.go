package consts

// 通用错误码
const (
	CodeSuccess int32 = 0 // 成功
)

// 客户端错误 (1xxxx)
const (
	CodeParamError       int32 = 10001 // 参数验证失败
	CodeBodyError        int32 = 10002 // 请求体格式错误
	CodeResourceNotFound int32 = 10003 // 资源不存在
	CodeTooManyRequests  int32 = 10005 // 请求过于频繁
)

// 认证错误 (2xxxx)
const (
	CodeUnauthorized   int32 = 20001 // 未认证
	CodeInvalidToken   int32 = 20002 // Token 无效
	CodeTokenExpired   int32 = 20003 // Token 已过期
	CodePermissionDeny int32 = 20004 // 权限不足
)

// 用户模块错误 (11xxx)
const (
	CodeUserNotFound     int32 = 11001 // 用户不存在
	CodeUserAlreadyExist int32 = 11002 // 用户已存在
	CodePasswordError    int32 = 11003 // 密码错误
	CodeEmailError       int32 = 11005 // 邮箱格式错误
)

// 好友模块错误 (12xxx)
const (
	CodeAlreadyFriend     int32 = 12001 // 已经是好友
	CodeFriendRequestSent int32 = 12002 // 好友申请已发送
	CodeNotFriend         int32 = 12003 // 不存在该好友关系
	CodeApplyNotFound     int32 = 12004 // 好友申请不存在
	CodeCannotAddSelf     int32 = 12005 // 不能添加自己为好友
)

// 消息模块错误 (13xxx)
const (
	CodeMessageSendFail int32 = 13002 // 消息发送失败
	CodeMessageEmpty    int32 = 13005 // 消息内容为空
)

// 通话模块错误 (15xxx)
const (
	CodeCallNotFound int32 = 15001 // 通话不存在
	CodeCallerBusy   int32 = 15002 // 主叫方正在通话中
	CodeReceiverBusy int32 = 15003 // 被叫方正在通话中
	CodeNotCallParty int32 = 15004 // 不是该通话的参与方
)

// 服务端错误 (3xxxx)
const (
	CodeInternalError      int32 = 30001 // 服务器内部错误
	CodeServiceUnavailable int32 = 30002 // 服务暂不可用
)

// 错误消息映射
var CodeMessage = map[int32]string{
	CodeSuccess: "success",

	// 客户端错误
	CodeParamError:       "参数验证失败",
	CodeBodyError:        "请求体格式错误",
	CodeResourceNotFound: "资源不存在",
	CodeTooManyRequests:  "请求过于频繁",

	// 认证错误
	CodeUnauthorized:   "未认证",
	CodeInvalidToken:   "Token 无效",
	CodeTokenExpired:   "Token 已过期",
	CodePermissionDeny: "权限不足",

	// 用户模块
	CodeUserNotFound:     "用户不存在",
	CodeUserAlreadyExist: "用户已存在",
	CodePasswordError:    "密码错误",
	CodeEmailError:       "邮箱格式错误",

	// 好友模块
	CodeAlreadyFriend:     "已经是好友",
	CodeFriendRequestSent: "好友申请已发送",
	CodeNotFriend:         "不存在该好友关系",
	CodeApplyNotFound:     "好友申请不存在",
	CodeCannotAddSelf:     "不能添加自己为好友",

	// 消息模块
	CodeMessageSendFail: "消息发送失败",
	CodeMessageEmpty:    "消息内容为空",

	// 通话模块
	CodeCallNotFound: "通话不存在",
	CodeCallerBusy:   "您正在通话中",
	CodeReceiverBusy: "对方正在通话中",
	CodeNotCallParty: "无权访问该通话",

	// 服务端错误
	CodeInternalError:      "服务器内部错误",
	CodeServiceUnavailable: "服务暂不可用",
}

// GetMessage 根据错误码获取错误消息
func GetMessage(code int32) string {
	if msg, ok := CodeMessage[code]; ok {
		return msg
	}
	return "未知错误"
}

// IsNonServerError 判断是否为业务错误（非 3xxxx 服务端错误）。
// 业务错误直接返回给客户端，不记录 error 日志。
func IsNonServerError(code int32) bool {
	return code > 0 && code < 30000
}
