package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

type WebhookNotify struct {
	UserID    string
	Event     string
	Reason    string
	TimeStamp string
}

// NotifyWebhook отправляет событие о перевыпуске refresh токена, когда
// клиент предъявил неизвестный или просроченный кандидат.
func NotifyWebhook(webhookURL string, timeout time.Duration, userID string, reason string) error {
	payload := &WebhookNotify{
		UserID:    userID,
		Event:     "refresh_token_reissued",
		Reason:    reason,
		TimeStamp: time.Now().Format(time.RFC3339),
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка преобразования в json: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	response, err := client.Post(webhookURL, "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("ошибка отправки webhook: %w", err)
	}
	defer response.Body.Close()

	log.Print("webhook успешно отправлен")
	return nil
}
