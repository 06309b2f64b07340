package v1

import (
	"LinkChat/apps/chat/internal/service"
	"LinkChat/consts"
	"LinkChat/pkg/util"
	"errors"
)

// extractErrorCode 把服务层哨兵错误映射为业务错误码
// 未识别的错误一律归为服务端内部错误
func extractErrorCode(err error) int32 {
	if err == nil {
		return consts.CodeSuccess
	}

	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrReceiverNotFound):
		return consts.CodeUserNotFound
	case errors.Is(err, service.ErrEmailTaken):
		return consts.CodeUserAlreadyExist
	case errors.Is(err, service.ErrPasswordWrong):
		return consts.CodePasswordError
	case errors.Is(err, util.ErrTokenInvalid):
		return consts.CodeInvalidToken

	case errors.Is(err, service.ErrSelfApply):
		return consts.CodeCannotAddSelf
	case errors.Is(err, service.ErrAlreadyFriend):
		return consts.CodeAlreadyFriend
	case errors.Is(err, service.ErrApplyExists):
		return consts.CodeFriendRequestSent
	case errors.Is(err, service.ErrApplyNotFound):
		return consts.CodeApplyNotFound
	case errors.Is(err, service.ErrNotFriend):
		return consts.CodeNotFriend

	case errors.Is(err, service.ErrMessageEmpty):
		return consts.CodeMessageEmpty

	case errors.Is(err, service.ErrCallNotFound):
		return consts.CodeCallNotFound
	case errors.Is(err, service.ErrCallerBusy):
		return consts.CodeCallerBusy
	case errors.Is(err, service.ErrReceiverBusy):
		return consts.CodeReceiverBusy
	case errors.Is(err, service.ErrNotCallParty):
		return consts.CodeNotCallParty
	}

	return consts.CodeInternalError
}
