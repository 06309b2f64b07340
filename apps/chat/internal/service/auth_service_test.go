package service

import (
	"context"
	"testing"
	"time"

	"LinkChat/apps/chat/internal/dto"
	"LinkChat/apps/chat/internal/repository"
	"LinkChat/config"
	"LinkChat/model"
	"LinkChat/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAuthRepo struct {
	users  map[string]*model.UserInfo // email -> user
	tokens map[string]string          // userUUID -> fingerprint

	storeErr  error
	verifyErr error
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		users:  make(map[string]*model.UserInfo),
		tokens: make(map[string]string),
	}
}

func (f *fakeAuthRepo) GetByEmail(_ context.Context, email string) (*model.UserInfo, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeAuthRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeAuthRepo) Create(_ context.Context, user *model.UserInfo) (*model.UserInfo, error) {
	if _, ok := f.users[user.Email]; ok {
		return nil, repository.ErrDuplicateKey
	}
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeAuthRepo) StoreAccessToken(_ context.Context, userUUID, tokenMD5 string, _ time.Duration) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.tokens[userUUID] = tokenMD5
	return nil
}

func (f *fakeAuthRepo) VerifyAccessToken(_ context.Context, userUUID, tokenMD5 string) (bool, error) {
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	stored, ok := f.tokens[userUUID]
	if !ok {
		return false, nil
	}
	return stored == tokenMD5, nil
}

func (f *fakeAuthRepo) DeleteAccessToken(_ context.Context, userUUID string) error {
	delete(f.tokens, userUUID)
	return nil
}

func newAuthService(repo repository.IAuthRepository) AuthService {
	initCallTestLogger()
	cfg := config.DefaultJWTConfig()
	util.InitJWT(cfg)
	return NewAuthService(repo, cfg)
}

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newAuthService(repo)

	reg, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "alice@example.com",
		Password: "secret-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.UserUUID)
	// 昵称缺省取邮箱前缀
	assert.Equal(t, "alice", reg.Nickname)

	// 密码必须以 bcrypt 哈希落库
	stored := repo.users["alice@example.com"]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret-1")))

	login, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.Equal(t, reg.UserUUID, login.UserInfo.UUID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "secret-1"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "secret-2"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "secret-1"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &dto.LoginRequest{Email: "a@b.com", Password: "wrong-pass"})
	require.ErrorIs(t, err, ErrPasswordWrong)

	_, err = svc.Login(context.Background(), &dto.LoginRequest{Email: "nobody@b.com", Password: "secret-1"})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthenticateLifecycle(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "secret-1"})
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "a@b.com", Password: "secret-1"})
	require.NoError(t, err)

	userUUID, err := svc.Authenticate(context.Background(), login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, login.UserInfo.UUID, userUUID)

	// 登出后指纹吊销，令牌即使未过期也失效
	require.NoError(t, svc.Logout(context.Background(), userUUID))
	_, err = svc.Authenticate(context.Background(), login.AccessToken)
	require.ErrorIs(t, err, util.ErrTokenInvalid)

	_, err = svc.Authenticate(context.Background(), "garbage-token")
	require.ErrorIs(t, err, util.ErrTokenInvalid)
}

func TestAuthenticateFailsOpenOnRedisOutage(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Email: "a@b.com", Password: "secret-1"})
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "a@b.com", Password: "secret-1"})
	require.NoError(t, err)

	// Redis 故障时降级为仅 JWT 校验
	repo.verifyErr = repository.ErrRedis
	userUUID, err := svc.Authenticate(context.Background(), login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, login.UserInfo.UUID, userUUID)
}
