package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// MoondreamClient клиент для Moondream Cloud API (vision-language модель)
type MoondreamClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// moondreamQueryRequest тело запроса POST /query
type moondreamQueryRequest struct {
	ImageURL string `json:"image_url"`
	Question string `json:"question"`
	Stream   bool   `json:"stream"`
}

// moondreamQueryResponse ответ Moondream API
type moondreamQueryResponse struct {
	RequestID string `json:"request_id"`
	Answer    string `json:"answer"`
}

// NewMoondreamClient создает новый клиент Moondream API
func NewMoondreamClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *MoondreamClient {
	return &MoondreamClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Query отправляет изображение с вопросом в Moondream и возвращает текстовый ответ.
// Изображение кодируется в data URI, стриминг всегда отключен.
func (c *MoondreamClient) Query(ctx context.Context, image []byte, mimeType, question string) (string, error) {
	c.logger.Debug("Отправка запроса в Moondream API")

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	payload, err := json.Marshal(moondreamQueryRequest{
		ImageURL: dataURL,
		Question: question,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	url := fmt.Sprintf("%s/query", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Moondream-Auth", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Moondream API вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	var queryResp moondreamQueryResponse
	if err := json.Unmarshal(respBody, &queryResp); err != nil {
		return "", fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	c.logger.WithField("request_id", queryResp.RequestID).Debug("Получен ответ от Moondream API")
	return queryResp.Answer, nil
}
