package handler

import (
	"context"
	"io"
	"strconv"

	"digiwallet/internal/model"
	"digiwallet/internal/service"
	"digiwallet/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, req *service.RegisterRequest) error
	Login(ctx context.Context, req *service.LoginRequest) (string, error)
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, req *service.UpdateProfileRequest) (*model.User, error)
	UpdateProfileImage(ctx context.Context, userID int64, file io.Reader) (*model.User, error)
}

type CatalogService interface {
	ListServices(ctx context.Context) ([]model.Service, error)
	ListBanners(ctx context.Context) ([]model.Banner, error)
}

type BalanceService interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
}

type TransactionService interface {
	TopUp(ctx context.Context, identity model.Identity, amount int64) (int64, error)
	Pay(ctx context.Context, identity model.Identity, serviceCode string) (*service.PaymentResult, error)
}

type HistoryService interface {
	ListHistory(ctx context.Context, userID int64, limit, offset *int) ([]model.TransactionHistory, error)
}

// Services 处理器依赖的全部服务
type Services struct {
	Auth        AuthService
	Profile     ProfileService
	Catalog     CatalogService
	Balance     BalanceService
	Transaction TransactionService
	History     HistoryService
}

// Handler 统一处理器
type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// ============================================================
// 身份
// ============================================================

// Register 注册
// POST /registration
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.svc.Auth.Register(c.Request.Context(), &req); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, "注册成功，请登录", nil)
}

// Login 登录
// POST /login
func (h *Handler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	tok, err := h.svc.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, "登录成功", gin.H{"token": tok})
}

// ============================================================
// 个人资料
// ============================================================

// GetProfile GET /profile
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.svc.Profile.GetProfile(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, "查询成功", user)
}

// UpdateProfile PUT /profile/update
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.svc.Profile.UpdateProfile(c.Request.Context(), identityFrom(c).UserID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, "资料更新成功", user)
}

// UpdateProfileImage PUT /profile/image，multipart 字段 file
func (h *Handler) UpdateProfileImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "缺少图片文件")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.ParamError(c, "读取图片文件失败")
		return
	}
	defer file.Close()

	user, err := h.svc.Profile.UpdateProfileImage(c.Request.Context(), identityFrom(c).UserID, file)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, "头像更新成功", user)
}

// ============================================================
// 目录
// ============================================================

// ListBanners GET /banner
func (h *Handler) ListBanners(c *gin.Context) {
	banners, err := h.svc.Catalog.ListBanners(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, "查询成功", banners)
}

// ListServices GET /services
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.svc.Catalog.ListServices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, "查询成功", services)
}

// ============================================================
// 余额与交易
// ============================================================

// GetBalance GET /balance
func (h *Handler) GetBalance(c *gin.Context) {
	balance, err := h.svc.Balance.GetBalance(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, "余额查询成功", gin.H{"balance": balance})
}

// TopUpRequest 充值请求，金额 <=0 由服务层拒绝
type TopUpRequest struct {
	TopUpAmount *int64 `json:"top_up_amount" binding:"required"`
}

// TopUp POST /topup
func (h *Handler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, service.ErrInvalidAmount)
		return
	}

	balance, err := h.svc.Transaction.TopUp(c.Request.Context(), identityFrom(c), *req.TopUpAmount)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, "充值成功", gin.H{"balance": balance})
}

type PaymentRequest struct {
	ServiceCode string `json:"service_code"`
}

// Pay POST /transaction
func (h *Handler) Pay(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.Transaction.Pay(c.Request.Context(), identityFrom(c), req.ServiceCode)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, "交易成功", result)
}

// ListHistory GET /transaction/history?limit=&offset=
func (h *Handler) ListHistory(c *gin.Context) {
	limit, err := optionalInt(c, "limit")
	if err != nil {
		response.ParamError(c, "limit 参数错误")
		return
	}
	offset, err := optionalInt(c, "offset")
	if err != nil {
		response.ParamError(c, "offset 参数错误")
		return
	}

	records, err := h.svc.History.ListHistory(c.Request.Context(), identityFrom(c).UserID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, "查询成功", gin.H{
		"offset":  offset,
		"limit":   limit,
		"records": records,
	})
}

// optionalInt 未传参数时返回 nil，负数视为非法
func optionalInt(c *gin.Context, key string) (*int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	if v < 0 {
		return nil, strconv.ErrRange
	}
	return &v, nil
}
