package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/wyfcoding/ecommerce/internal/notification/domain"
)

// SMSGatewaySender 通过 HTTP JSON 网关发送短信。
// subject 参数在短信通道中被忽略。
type SMSGatewaySender struct {
	client   *http.Client
	endpoint string
	apiKey   string
	sender   string
}

// NewSMSGatewaySender 创建短信网关发送器
func NewSMSGatewaySender(endpoint, apiKey, senderNumber string, timeout time.Duration) domain.Sender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMSGatewaySender{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		apiKey:   apiKey,
		sender:   senderNumber,
	}
}

func (s *SMSGatewaySender) Send(ctx context.Context, target string, subject string, content string) error {
	slog.InfoContext(ctx, "sending sms", "target", target)

	payload := map[string]string{
		"sender":   s.sender,
		"receptor": target,
		"message":  content,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
