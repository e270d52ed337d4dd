package service

import (
	"regexp"
	"strings"

	"bike-lane-sentinel-go/internal/model"
)

// vehicleAnswerPattern выделяет тип транспорта после "yes" с опциональной запятой.
// Модель не гарантирует формат ответа, поэтому паттерн максимально терпимый.
var vehicleAnswerPattern = regexp.MustCompile(`(?i)^yes,?\s*(.*)$`)

// ParseYesNoAnswer разбирает ответ модели в простом режиме.
// Положительным считается только ответ, равный "yes" после нормализации,
// префиксные совпадения ("yes but...") трактуются как отрицательные.
func ParseYesNoAnswer(answer string) bool {
	return strings.ToLower(strings.TrimSpace(answer)) == "yes"
}

// ParseVehicleAnswer разбирает ответ модели в расширенном режиме.
// Возвращает флаг нарушения и тип транспорта. Если ответ начинается с "yes",
// но тип не назван, возвращается sentinel "Unknown Vehicle". Функция никогда
// не возвращает ошибку: любой неразборчивый ответ означает "нарушения нет".
func ParseVehicleAnswer(answer string) (bool, string) {
	trimmed := strings.TrimSpace(answer)

	match := vehicleAnswerPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return false, ""
	}

	vehicleType := strings.TrimSpace(match[1])
	if vehicleType == "" {
		return true, model.UnknownVehicle
	}

	return true, vehicleType
}
