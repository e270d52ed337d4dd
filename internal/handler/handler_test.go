package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bike-lane-sentinel-go/internal/geo"
	"bike-lane-sentinel-go/internal/model"
	"bike-lane-sentinel-go/internal/repository"
	"bike-lane-sentinel-go/internal/service"
)

// stubEngine подменяет vision-language модель в тестах обработчиков
type stubEngine struct {
	answer string
	err    error
}

func (s *stubEngine) Query(_ context.Context, _ []byte, _, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

// apiResponse обобщенный ответ API для разбора в тестах
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newTestRouter собирает полный router с подмененным движком инференса
// и недоступным каталогом камер (работает встроенный список)
func newTestRouter(engine service.InferenceEngine) (*gin.Engine, repository.ViolationRepository) {
	gin.SetMode(gin.TestMode)
	logger := testLogger()

	repo := repository.NewMemoryRepository()
	geoCalc := geo.NewCalculator()
	cameras := service.NewCameraService("http://127.0.0.1:1", time.Second, time.Minute, geoCalc, logger)
	detection := service.NewDetectionService(engine, cameras, repo, logger, service.ModeExtended, 10*1024*1024)

	router := gin.New()
	api := router.Group("/api")

	NewDetectionHandler(detection, logger).RegisterRoutes(api)
	NewCameraHandler(cameras, logger).RegisterRoutes(api)
	NewViolationHandler(repo, logger).RegisterRoutes(api)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse("Endpoint not found"))
	})

	return router, repo
}

// multipartImage собирает multipart тело с файлом image и дополнительными полями
func multipartImage(t *testing.T, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="photo.jpg"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("ошибка создания multipart части: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("ошибка записи данных файла: %v", err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("ошибка записи поля %s: %v", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("ошибка закрытия multipart writer: %v", err)
	}

	return &buf, writer.FormDataContentType()
}

func doRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func parseResponse(t *testing.T, recorder *httptest.ResponseRecorder) apiResponse {
	t.Helper()

	var resp apiResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("ошибка разбора ответа %s: %v", recorder.Body.String(), err)
	}
	return resp
}

func TestDetectMissingImage(t *testing.T) {
	router, _ := newTestRouter(&stubEngine{answer: "no"})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("cameraId", "cam-1")
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/detect-bike-lane-violations", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	recorder := doRequest(router, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("статус %d, ожидался 400", recorder.Code)
	}

	resp := parseResponse(t, recorder)
	if resp.Success || resp.Message != "Image file is required." {
		t.Errorf("ответ %+v", resp)
	}
}

func TestDetectInvalidFileType(t *testing.T) {
	router, _ := newTestRouter(&stubEngine{answer: "no"})

	body, contentType := multipartImage(t, "image/bmp", []byte("bmp-data"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/detect-bike-lane-violations", body)
	req.Header.Set("Content-Type", contentType)

	recorder := doRequest(router, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("статус %d, ожидался 400", recorder.Code)
	}

	resp := parseResponse(t, recorder)
	if resp.Message != "Invalid file type. Please upload a JPEG, PNG, or GIF image." {
		t.Errorf("сообщение %q", resp.Message)
	}
}

func TestDetectOversizedImage(t *testing.T) {
	router, _ := newTestRouter(&stubEngine{answer: "no"})

	body, contentType := multipartImage(t, "image/jpeg", make([]byte, 11*1024*1024), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/detect-bike-lane-violations", body)
	req.Header.Set("Content-Type", contentType)

	recorder := doRequest(router, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("статус %d, ожидался 400", recorder.Code)
	}

	resp := parseResponse(t, recorder)
	if resp.Message != "File size too large. Please upload an image smaller than 10MB." {
		t.Errorf("сообщение %q", resp.Message)
	}
}

func TestDetectNoViolationScenario(t *testing.T) {
	router, repo := newTestRouter(&stubEngine{answer: "no"})

	body, contentType := multipartImage(t, "image/jpeg", []byte("jpeg-data"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/detect-bike-lane-violations", body)
	req.Header.Set("Content-Type", contentType)

	recorder := doRequest(router, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("статус %d, ожидался 200: %s", recorder.Code, recorder.Body.String())
	}

	resp := parseResponse(t, recorder)
	if !resp.Success {
		t.Error("отсутствие нарушения это успешный результат")
	}

	var result service.DetectionResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatalf("ошибка разбора data: %v", err)
	}
	if result.HasCarsInBikeLane {
		t.Error("нарушение не должно быть обнаружено")
	}
	if result.ViolationID != "" {
		t.Error("ID нарушения не должен присутствовать")
	}

	violations, _ := repo.List(context.Background())
	if len(violations) != 0 {
		t.Errorf("хранилище должно остаться пустым, записей: %d", len(violations))
	}
}

func TestDetectViolationScenario(t *testing.T) {
	router, _ := newTestRouter(&stubEngine{answer: "Yes, Taxi"})

	body, contentType := multipartImage(t, "image/jpeg", []byte("jpeg-data"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/detect-bike-lane-violations", body)
	req.Header.Set("Content-Type", contentType)

	recorder := doRequest(router, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("статус %d, ожидался 200: %s", recorder.Code, recorder.Body.String())
	}

	resp := parseResponse(t, recorder)
	var result service.DetectionResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatalf("ошибка разбора data: %v", err)
	}
	if !result.HasCarsInBikeLane || result.VehicleType != "Taxi" || result.ViolationID == "" {
		t.Fatalf("неожиданный результат: %+v", result)
	}

	// Нарушение должно появиться в списке со статусом Pending и confidence 0.85
	listRecorder := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/violations", nil))
	if listRecorder.Code != http.StatusOK {
		t.Fatalf("статус списка %d", listRecorder.Code)
	}

	listResp := parseResponse(t, listRecorder)
	var violations []model.Violation
	if err := json.Unmarshal(listResp.Data, &violations); err != nil {
		t.Fatalf("ошибка разбора списка: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("в списке %d нарушений, ожидалось 1", len(violations))
	}
	if violations[0].ID != result.ViolationID {
		t.Error("ID нарушения в списке не совпадает с ответом детекции")
	}
	if violations[0].Status != model.StatusPending {
		t.Errorf("статус %s, ожидался Pending", violations[0].Status)
	}
	if violations[0].Confidence != 0.85 {
		t.Errorf("confidence %f, ожидалось 0.85", violations[0].Confidence)
	}
}

func TestDetectUnknownCameraStillSucceeds(t *testing.T) {
	router, _ := newTestRouter(&stubEngine{answer: "no"})

	body, contentType := multipartImage(t, "image/jpeg", []byte("jpeg-data"), map[string]string{
		"cameraId": "no-such-camera",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/detect-bike-lane-violations", body)
	req.Header.Set("Content-Type", contentType)

	recorder := doRequest(router, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("неизвестная камера не должна ломать запрос: статус %d", recorder.Code)
	}

	resp := parseResponse(t, recorder)
	if !resp.Success {
		t.Error("ответ должен быть успешным")
	}
}

func TestDetectInferenceFailureReturns500(t *testing.T) {
	router, _ := newTestRouter(&stubEngine{err: fmt.Errorf("model unavailable")})

	body, contentType := multipartImage(t, "image/jpeg", []byte("jpeg-data"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/detect-bike-lane-violations", body)
	req.Header.Set("Content-Type", contentType)

	recorder := doRequest(router, req)
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("статус %d, ожидался 500", recorder.Code)
	}

	resp := parseResponse(t, recorder)
	if resp.Success || !strings.Contains(resp.Message, "Internal server error") {
		t.Errorf("ответ %+v", resp)
	}
}

func TestGetViolationNotFound(t *testing.T) {
	router, _ := newTestRouter(&stubEngine{answer: "no"})

	recorder := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/violations/ghost-id", nil))
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("статус %d, ожидался 404", recorder.Code)
	}

	resp := parseResponse(t, recorder)
	if !strings.Contains(resp.Message, "ghost-id") {
		t.Errorf("сообщение должно содержать ID: %q", resp.Message)
	}
}

func TestUpdateViolationStatus(t *testing.T) {
	router, repo := newTestRouter(&stubEngine{answer: "no"})

	violation := &model.Violation{
		ID:          "v-1",
		CameraID:    model.UserSubmittedCamera,
		ImageURL:    "data:image/jpeg;base64,dGVzdA==",
		VehicleType: "SUV",
		Location:    model.GeoLocation{Lat: 40.7128, Lng: -74.0060},
		Timestamp:   "2025-06-20T15:42:30Z",
		Status:      model.StatusPending,
		Confidence:  model.DetectionConfidence,
	}
	if err := repo.Create(context.Background(), violation); err != nil {
		t.Fatalf("ошибка подготовки данных: %v", err)
	}

	update := func(status string) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(map[string]string{"status": status})
		req := httptest.NewRequest(http.MethodPost, "/api/violations/v-1/status", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		return doRequest(router, req)
	}

	recorder := update("Confirmed")
	if recorder.Code != http.StatusOK {
		t.Fatalf("статус %d, ожидался 200: %s", recorder.Code, recorder.Body.String())
	}

	var updated model.Violation
	resp := parseResponse(t, recorder)
	if err := json.Unmarshal(resp.Data, &updated); err != nil {
		t.Fatalf("ошибка разбора data: %v", err)
	}
	if updated.Status != model.StatusConfirmed {
		t.Errorf("статус %s, ожидался Confirmed", updated.Status)
	}

	// Идемпотентность: повторная установка того же статуса возвращает ту же запись
	repeated := update("Confirmed")
	if repeated.Code != http.StatusOK {
		t.Fatalf("повторное обновление вернуло статус %d", repeated.Code)
	}

	// Недопустимый статус
	invalid := update("Archived")
	if invalid.Code != http.StatusBadRequest {
		t.Fatalf("недопустимый статус должен давать 400, получен %d", invalid.Code)
	}

	// Неизвестный ID
	payload, _ := json.Marshal(map[string]string{"status": "Confirmed"})
	req := httptest.NewRequest(http.MethodPost, "/api/violations/ghost/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	notFound := doRequest(router, req)
	if notFound.Code != http.StatusNotFound {
		t.Fatalf("неизвестный ID должен давать 404, получен %d", notFound.Code)
	}
}

func TestGetCamerasEndpoint(t *testing.T) {
	router, _ := newTestRouter(&stubEngine{answer: "no"})

	recorder := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/cameras", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("статус %d", recorder.Code)
	}

	resp := parseResponse(t, recorder)
	var cameras []model.TrafficCamera
	if err := json.Unmarshal(resp.Data, &cameras); err != nil {
		t.Fatalf("ошибка разбора списка камер: %v", err)
	}
	// Каталог недоступен: отдаем встроенный список
	if len(cameras) != 5 {
		t.Errorf("получено %d камер, ожидались 5 встроенных", len(cameras))
	}

	filtered := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/cameras?nearBikeLanes=true", nil))
	resp = parseResponse(t, filtered)
	if err := json.Unmarshal(resp.Data, &cameras); err != nil {
		t.Fatalf("ошибка разбора списка камер: %v", err)
	}
	for _, camera := range cameras {
		if !camera.NearBikeLane {
			t.Errorf("камера %s не рядом с велодорожкой", camera.ID)
		}
	}
}

func TestGetCameraFeedEndpoint(t *testing.T) {
	router, _ := newTestRouter(&stubEngine{answer: "no"})

	recorder := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/cameras/07717cda-a5e0-4496-b051-2d0c9f6a873f/feed", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("статус %d", recorder.Code)
	}

	resp := parseResponse(t, recorder)
	var feed model.TrafficCameraFeed
	if err := json.Unmarshal(resp.Data, &feed); err != nil {
		t.Fatalf("ошибка разбора feed: %v", err)
	}
	if feed.CameraName != "Bedford Ave at N 7th St" {
		t.Errorf("имя камеры %q", feed.CameraName)
	}
	if !strings.Contains(feed.ImageURL, "?t=") {
		t.Errorf("URL кадра должен содержать cache-busting параметр: %s", feed.ImageURL)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(&stubEngine{answer: "no"})

	recorder := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("статус %d", recorder.Code)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("ошибка разбора ответа: %v", err)
	}
	if payload["success"] != true || payload["message"] != "Bike Lane Sentinel API is running" {
		t.Errorf("неожиданный ответ health: %v", payload)
	}
}

func TestUnknownEndpointReturns404(t *testing.T) {
	router, _ := newTestRouter(&stubEngine{answer: "no"})

	recorder := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("статус %d, ожидался 404", recorder.Code)
	}

	resp := parseResponse(t, recorder)
	if resp.Message != "Endpoint not found" {
		t.Errorf("сообщение %q", resp.Message)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimitMiddleware(time.Minute, 3))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		recorder := doRequest(router, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("запрос %d в пределах лимита вернул %d", i+1, recorder.Code)
		}
	}

	recorder := doRequest(router, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if recorder.Code != http.StatusTooManyRequests {
		t.Fatalf("запрос сверх лимита вернул %d, ожидался 429", recorder.Code)
	}

	var resp apiResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("ошибка разбора ответа: %v", err)
	}
	if resp.Message != "Too many requests from this IP, please try again later." {
		t.Errorf("сообщение %q", resp.Message)
	}
}
