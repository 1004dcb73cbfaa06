package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BerniceZTT/shop_end/models"
	"github.com/BerniceZTT/shop_end/utils"

	"github.com/google/uuid"
)

// HTTPSender 通过HTTP调用外部通知服务的发送器。
// 未配置服务地址时降级为只记录日志（本地开发模式），视为发送成功
type HTTPSender struct {
	apiURL string
	client *http.Client
}

// NewHTTPSender 创建HTTP发送器
func NewHTTPSender(apiURL string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSender{
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Send 发送通知，请求体为模板类型加结构化数据
func (s *HTTPSender) Send(ctx context.Context, templateType models.NotificationType, payload map[string]interface{}) (*models.SendResult, error) {
	if s.apiURL == "" {
		utils.LogInfo(map[string]interface{}{
			"type":    templateType,
			"payload": payload,
		}, "未配置通知服务地址，仅记录日志")
		return &models.SendResult{
			Success:   true,
			MessageID: "log-" + uuid.NewString(),
		}, nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"template": templateType,
		"data":     payload,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化通知内容失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("构造通知请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("调用通知服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &models.SendResult{
			Success: false,
			Error:   fmt.Sprintf("通知服务返回状态码 %d", resp.StatusCode),
		}, nil
	}

	var result models.SendResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// 服务端2xx但响应体不规范，按成功处理
		return &models.SendResult{Success: true}, nil
	}
	return &result, nil
}
