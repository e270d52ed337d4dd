package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bike-lane-sentinel-go/internal/geo"
	"bike-lane-sentinel-go/internal/model"
)

// CameraService сервис для работы с каталогом дорожных камер NYC DOT
type CameraService struct {
	dataURL    string
	cacheTTL   time.Duration
	httpClient *http.Client
	geoCalc    *geo.Calculator
	logger     *logrus.Logger

	mu       sync.RWMutex
	cache    map[string]model.TrafficCamera
	cachedAt time.Time

	fallbackCameras []model.TrafficCamera
}

// NewCameraService создает новый сервис каталога камер
func NewCameraService(dataURL string, fetchTimeout, cacheTTL time.Duration, geoCalc *geo.Calculator, logger *logrus.Logger) *CameraService {
	return &CameraService{
		dataURL:  dataURL,
		cacheTTL: cacheTTL,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
		geoCalc:         geoCalc,
		logger:          logger,
		cache:           make(map[string]model.TrafficCamera),
		fallbackCameras: buildFallbackCameras(),
	}
}

// buildFallbackCameras возвращает встроенный список камер NYC
// на случай недоступности каталога (демо-режим)
func buildFallbackCameras() []model.TrafficCamera {
	now := time.Now().UTC().Format(time.RFC3339)

	return []model.TrafficCamera{
		{
			ID:           "d4bbce49-b087-4524-a835-08cb253926a7",
			Name:         "First Ave at E 42nd St",
			Location:     model.GeoLocation{Lat: 40.7500, Lng: -73.9707},
			Area:         "Manhattan",
			ImageURL:     "https://webcams.nyctmc.org/api/cameras/d4bbce49-b087-4524-a835-08cb253926a7/image",
			LastUpdated:  now,
			Status:       model.CameraOnline,
			NearBikeLane: true,
		},
		{
			ID:           "07717cda-a5e0-4496-b051-2d0c9f6a873f",
			Name:         "Bedford Ave at N 7th St",
			Location:     model.GeoLocation{Lat: 40.7197, Lng: -73.9566},
			Area:         "Brooklyn",
			ImageURL:     "https://webcams.nyctmc.org/api/cameras/07717cda-a5e0-4496-b051-2d0c9f6a873f/image",
			LastUpdated:  now,
			Status:       model.CameraOnline,
			NearBikeLane: true,
		},
		{
			ID:           "c4e4d38f-89e9-4a09-90ae-24b9ab4ff456",
			Name:         "Queens Blvd at 63rd Dr",
			Location:     model.GeoLocation{Lat: 40.7334, Lng: -73.9272},
			Area:         "Queens",
			ImageURL:     "https://webcams.nyctmc.org/api/cameras/c4e4d38f-89e9-4a09-90ae-24b9ab4ff456/image",
			LastUpdated:  now,
			Status:       model.CameraOnline,
			NearBikeLane: true,
		},
		{
			ID:           "b8a456e2-d820-4494-9f5a-c5f0d7f9d20a",
			Name:         "8th Ave at W 34th St",
			Location:     model.GeoLocation{Lat: 40.7328, Lng: -74.0027},
			Area:         "Manhattan",
			ImageURL:     "https://webcams.nyctmc.org/api/cameras/b8a456e2-d820-4494-9f5a-c5f0d7f9d20a/image",
			LastUpdated:  now,
			Status:       model.CameraOnline,
			NearBikeLane: true,
		},
		{
			ID:           "93c26401-af97-4683-b6c3-2faad7e81ff4",
			Name:         "Grand Concourse at E 161st St",
			Location:     model.GeoLocation{Lat: 40.8301, Lng: -73.9187},
			Area:         "Bronx",
			ImageURL:     "https://webcams.nyctmc.org/api/cameras/93c26401-af97-4683-b6c3-2faad7e81ff4/image",
			LastUpdated:  now,
			Status:       model.CameraOnline,
			NearBikeLane: true,
		},
	}
}

// GetAllCameras возвращает все доступные камеры.
// Сначала отдает кэш, затем пытается получить каталог NYC DOT,
// при любой ошибке возвращает встроенный список. Ошибок наружу не отдает.
func (s *CameraService) GetAllCameras(ctx context.Context) []model.TrafficCamera {
	s.mu.RLock()
	if len(s.cache) > 0 && time.Since(s.cachedAt) < s.cacheTTL {
		cameras := make([]model.TrafficCamera, 0, len(s.cache))
		for _, camera := range s.cache {
			cameras = append(cameras, camera)
		}
		s.mu.RUnlock()
		return cameras
	}
	s.mu.RUnlock()

	cameras, err := s.fetchCatalog(ctx)
	if err != nil {
		s.logger.Warnf("Каталог камер NYC DOT недоступен, используем встроенный список: %v", err)
		return s.fallbackCameras
	}

	s.mu.Lock()
	s.cache = make(map[string]model.TrafficCamera, len(cameras))
	for _, camera := range cameras {
		s.cache[camera.ID] = camera
	}
	s.cachedAt = time.Now()
	s.mu.Unlock()

	return cameras
}

// GetCamerasNearBikeLanes возвращает камеры рядом с велодорожками
func (s *CameraService) GetCamerasNearBikeLanes(ctx context.Context) []model.TrafficCamera {
	all := s.GetAllCameras(ctx)

	filtered := make([]model.TrafficCamera, 0, len(all))
	for _, camera := range all {
		if camera.NearBikeLane {
			filtered = append(filtered, camera)
		}
	}
	return filtered
}

// FindCamera ищет камеру по ID в кэше, каталоге и встроенном списке.
// Каталог небольшой, линейного поиска достаточно.
func (s *CameraService) FindCamera(ctx context.Context, cameraID string) (*model.TrafficCamera, bool) {
	s.mu.RLock()
	if camera, ok := s.cache[cameraID]; ok {
		s.mu.RUnlock()
		return &camera, true
	}
	s.mu.RUnlock()

	for _, camera := range s.GetAllCameras(ctx) {
		if camera.ID == cameraID {
			return &camera, true
		}
	}

	for _, camera := range s.fallbackCameras {
		if camera.ID == cameraID {
			return &camera, true
		}
	}

	return nil, false
}

// GetCameraFeed возвращает данные актуального снимка камеры.
// Неизвестный ID не является ошибкой: используется первая встроенная камера.
func (s *CameraService) GetCameraFeed(ctx context.Context, cameraID string) model.TrafficCameraFeed {
	camera, found := s.FindCamera(ctx, cameraID)
	if !found {
		s.logger.Warnf("Камера %s не найдена, используем резервную камеру", cameraID)
		camera = &s.fallbackCameras[0]
	}

	return model.TrafficCameraFeed{
		CameraID:   camera.ID,
		CameraName: camera.Name,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		ImageURL:   s.FeedURL(camera),
		Location:   camera.Location,
	}
}

// FeedURL строит URL живого кадра с параметром против кэширования
func (s *CameraService) FeedURL(camera *model.TrafficCamera) string {
	return fmt.Sprintf("%s?t=%d", camera.ImageURL, time.Now().UnixMilli())
}

// DownloadImage скачивает байты изображения по URL с коротким таймаутом
func (s *CameraService) DownloadImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка скачивания изображения: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("камера вернула статус %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения изображения: %w", err)
	}

	return data, nil
}

// fetchCatalog запрашивает каталог камер NYC DOT и приводит его к внутреннему формату
func (s *CameraService) fetchCatalog(ctx context.Context) ([]model.TrafficCamera, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.dataURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса каталога: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("каталог вернул статус %d", resp.StatusCode)
	}

	var rawCameras []model.RawCamera
	if err := json.Unmarshal(respBody, &rawCameras); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	if len(rawCameras) == 0 {
		return nil, fmt.Errorf("каталог вернул пустой список")
	}

	cameras := make([]model.TrafficCamera, 0, len(rawCameras))
	for _, raw := range rawCameras {
		cameras = append(cameras, s.parseRawCamera(raw))
	}

	s.logger.Infof("Загружен каталог камер NYC DOT: %d камер", len(cameras))
	return cameras, nil
}

// parseRawCamera приводит запись каталога NYC DOT к внутреннему формату
func (s *CameraService) parseRawCamera(raw model.RawCamera) model.TrafficCamera {
	lat, _ := raw.Lat.Float64()
	lng, _ := raw.Lng.Float64()
	location := model.GeoLocation{Lat: lat, Lng: lng}

	name := raw.Name
	if name == "" {
		name = "Unnamed Camera"
	}

	area := raw.Area
	if area == "" {
		area = s.geoCalc.DetermineArea(lat, lng)
	}

	imageURL := raw.ImageURL
	if imageURL == "" {
		imageURL = fmt.Sprintf("https://webcams.nyctmc.org/api/cameras/%s/image", raw.ID)
	}

	status := model.CameraOffline
	if raw.IsOnline {
		status = model.CameraOnline
	}

	return model.TrafficCamera{
		ID:           raw.ID,
		Name:         name,
		Location:     location,
		Area:         area,
		ImageURL:     imageURL,
		LastUpdated:  time.Now().UTC().Format(time.RFC3339),
		Status:       status,
		NearBikeLane: s.geoCalc.IsNearBikeLane(location),
	}
}
