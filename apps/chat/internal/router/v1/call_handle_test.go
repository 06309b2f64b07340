package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"LinkChat/apps/chat/internal/dto"
	"LinkChat/apps/chat/internal/service"
	"LinkChat/consts"
	"LinkChat/pkg/logger"
	"LinkChat/pkg/result"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var handlerTestOnce sync.Once

func initHandlerTest() {
	handlerTestOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		logger.ReplaceGlobal(zap.NewNop())
	})
}

type fakeCallHTTPService struct {
	service.CallService

	initiateFn func(context.Context, string, string) (*dto.InitiateCallResponse, error)
	statusFn   func(context.Context, string, string) (*dto.CallStatusResponse, error)
	historyFn  func(context.Context, string, int, int) (*dto.CallHistoryResponse, error)
}

func (f *fakeCallHTTPService) Initiate(ctx context.Context, callerUUID, receiverUUID string) (*dto.InitiateCallResponse, error) {
	if f.initiateFn == nil {
		return &dto.InitiateCallResponse{}, nil
	}
	return f.initiateFn(ctx, callerUUID, receiverUUID)
}

func (f *fakeCallHTTPService) Status(ctx context.Context, callID, requesterUUID string) (*dto.CallStatusResponse, error) {
	if f.statusFn == nil {
		return &dto.CallStatusResponse{}, nil
	}
	return f.statusFn(ctx, callID, requesterUUID)
}

func (f *fakeCallHTTPService) History(ctx context.Context, userUUID string, page, pageSize int) (*dto.CallHistoryResponse, error) {
	if f.historyFn == nil {
		return &dto.CallHistoryResponse{}, nil
	}
	return f.historyFn(ctx, userUUID, page, pageSize)
}

// newCallTestRouter 挂载通话路由，并用固定用户模拟认证中间件
func newCallTestRouter(svc service.CallService, userUUID string) *gin.Engine {
	initHandlerTest()
	h := NewCallHandler(svc)

	r := gin.New()
	auth := r.Group("/api/v1/auth", func(c *gin.Context) {
		c.Set("user_uuid", userUUID)
		c.Next()
	})
	auth.POST("/call/initiate", h.InitiateCall)
	auth.GET("/call/status/:callId", h.GetCallStatus)
	auth.GET("/call/history", h.GetCallHistory)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, *result.Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp result.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, &resp
}

func TestInitiateCallSuccess(t *testing.T) {
	svc := &fakeCallHTTPService{
		initiateFn: func(_ context.Context, callerUUID, receiverUUID string) (*dto.InitiateCallResponse, error) {
			assert.Equal(t, "alice", callerUUID)
			assert.Equal(t, "bob", receiverUUID)
			return &dto.InitiateCallResponse{CallID: "c1", ReceiverOnline: true}, nil
		},
	}
	r := newCallTestRouter(svc, "alice")

	w, resp := doRequest(t, r, http.MethodPost, "/api/v1/auth/call/initiate", gin.H{"receiverId": "bob"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, consts.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "c1", data["callId"])
	assert.Equal(t, true, data["receiverOnline"])
}

func TestInitiateCallMissingReceiver(t *testing.T) {
	r := newCallTestRouter(&fakeCallHTTPService{}, "alice")

	_, resp := doRequest(t, r, http.MethodPost, "/api/v1/auth/call/initiate", gin.H{})
	assert.Equal(t, consts.CodeParamError, resp.Code)
}

func TestInitiateCallBusyMapsToBizCode(t *testing.T) {
	svc := &fakeCallHTTPService{
		initiateFn: func(_ context.Context, _, _ string) (*dto.InitiateCallResponse, error) {
			return nil, service.ErrReceiverBusy
		},
	}
	r := newCallTestRouter(svc, "alice")

	w, resp := doRequest(t, r, http.MethodPost, "/api/v1/auth/call/initiate", gin.H{"receiverId": "bob"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, consts.CodeReceiverBusy, resp.Code)
}

func TestGetCallStatusAccessDenied(t *testing.T) {
	svc := &fakeCallHTTPService{
		statusFn: func(_ context.Context, _, _ string) (*dto.CallStatusResponse, error) {
			return nil, service.ErrNotCallParty
		},
	}
	r := newCallTestRouter(svc, "mallory")

	_, resp := doRequest(t, r, http.MethodGet, "/api/v1/auth/call/status/c1", nil)
	assert.Equal(t, consts.CodeNotCallParty, resp.Code)
}

func TestGetCallStatusNotFound(t *testing.T) {
	svc := &fakeCallHTTPService{
		statusFn: func(_ context.Context, callID, _ string) (*dto.CallStatusResponse, error) {
			assert.Equal(t, "missing", callID)
			return nil, service.ErrCallNotFound
		},
	}
	r := newCallTestRouter(svc, "alice")

	_, resp := doRequest(t, r, http.MethodGet, "/api/v1/auth/call/status/missing", nil)
	assert.Equal(t, consts.CodeCallNotFound, resp.Code)
}

func TestGetCallHistoryPassesPaging(t *testing.T) {
	var gotPage, gotPageSize int
	svc := &fakeCallHTTPService{
		historyFn: func(_ context.Context, userUUID string, page, pageSize int) (*dto.CallHistoryResponse, error) {
			assert.Equal(t, "alice", userUUID)
			gotPage, gotPageSize = page, pageSize
			return &dto.CallHistoryResponse{Items: []*dto.CallHistoryItem{}}, nil
		},
	}
	r := newCallTestRouter(svc, "alice")

	_, resp := doRequest(t, r, http.MethodGet, "/api/v1/auth/call/history?page=2&pageSize=10", nil)
	assert.Equal(t, consts.CodeSuccess, resp.Code)
	assert.Equal(t, 2, gotPage)
	assert.Equal(t, 10, gotPageSize)
}

func TestGetCallHistoryInternalError(t *testing.T) {
	svc := &fakeCallHTTPService{
		historyFn: func(_ context.Context, _ string, _, _ int) (*dto.CallHistoryResponse, error) {
			return nil, assert.AnError
		},
	}
	r := newCallTestRouter(svc, "alice")

	_, resp := doRequest(t, r, http.MethodGet, "/api/v1/auth/call/history", nil)
	assert.Equal(t, consts.CodeInternalError, resp.Code)
}
