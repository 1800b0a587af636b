package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// AvatarSignRequest 头像媒体服务签名请求
type AvatarSignRequest struct {
	ContactID   string `json:"contactId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// SignedUpload 签名上传结果
type SignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	ExpiresAt int64  `json:"expiresAt"`
}

// avatarResponse 媒体服务响应外层
type avatarResponse struct {
	Status int          `json:"status"`
	Msg    string       `json:"msg"`
	Data   SignedUpload `json:"data"`
}

// AvatarClient 外部头像媒体服务客户端。
// 上传本体和签名生成都在媒体服务侧，这里只换取签名URL。
type AvatarClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewAvatarClient 创建头像媒体服务客户端
func NewAvatarClient(baseURL, apiKey string, logger *zap.Logger) *AvatarClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-Api-Key", apiKey)

	return &AvatarClient{
		httpClient: client,
		logger:     logger,
	}
}

// SignUpload 为一个联系人头像换取签名上传URL
func (c *AvatarClient) SignUpload(ctx context.Context, req AvatarSignRequest) (*SignedUpload, error) {
	var response avatarResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&response).
		Post("/media/v1/avatars/sign")

	if err != nil {
		c.logger.Error("avatar service call failed",
			zap.Error(err),
			zap.String("contact_id", req.ContactID),
		)
		return nil, fmt.Errorf("avatar service unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("avatar service returned %d", resp.StatusCode())
	}
	if response.Status != 0 {
		return nil, fmt.Errorf("avatar service error: %s", response.Msg)
	}

	c.logger.Info("avatar upload signed",
		zap.String("contact_id", req.ContactID),
		zap.String("file_name", req.FileName),
	)
	return &response.Data, nil
}
