package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"MemeArena/internal/config"
	"MemeArena/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("invalid token")

// Verifier 将 bearer token 解析为调用者 ID
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Client 外部身份服务客户端（GET /auth/v1/user）
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient 创建身份服务客户端
func NewClient(cfg config.UpstreamConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

type userResponse struct {
	ID string `json:"id"`
}

// Verify 校验令牌并返回用户 ID；401/403 返回 ErrInvalidToken，其他失败返回包装后的错误
func (c *Client) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	if c.baseURL == "" {
		return "", fmt.Errorf("身份服务地址未配置")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("身份服务请求失败")
		return "", fmt.Errorf("身份服务请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		c.logger.WithField("status", resp.StatusCode).WithField("body", string(body)).Warn("身份服务返回错误")
		return "", fmt.Errorf("身份服务错误 %d", resp.StatusCode)
	}

	var u userResponse
	if err := json.Unmarshal(body, &u); err != nil {
		return "", fmt.Errorf("身份服务响应解析失败: %w", err)
	}
	if u.ID == "" {
		return "", ErrInvalidToken
	}
	return u.ID, nil
}
