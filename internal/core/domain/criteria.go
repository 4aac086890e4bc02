package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Criteria - критерии поиска. Пустые поля означают отсутствие ограничения.
type Criteria struct {
	LocationQuery string
	MaxPrice      *float64
}

// IsEmpty - true, если критерии ничего не отсекают
func (c Criteria) IsEmpty() bool {
	return c.LocationQuery == "" && c.MaxPrice == nil
}

// ParseCriteria нормализует ввод пользователя.
// Пустая цена - без ограничения, нечисловая или отрицательная - ErrInvalidMaxPrice.
func ParseCriteria(location, maxPrice string) (Criteria, error) {
	price, err := ParseMaxPrice(maxPrice)
	if err != nil {
		return Criteria{}, err
	}
	return Criteria{
		LocationQuery: strings.TrimSpace(location),
		MaxPrice:      price,
	}, nil
}

// ParseMaxPrice разбирает строку с максимальной ценой
func ParseMaxPrice(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidMaxPrice, raw)
	}
	if value < 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidMaxPrice, value)
	}
	return &value, nil
}
