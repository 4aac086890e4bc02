package domain

import (
	"fmt"
	"math"
	"strings"
)

func requiredField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: field '%s' is required", ErrValidation, name)
	}
	return nil
}

// Validate проверяет, что все поля квартиры заполнены
func (d ApartmentDraft) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"name", d.Name},
		{"location", d.Location},
		{"description", d.Description},
	} {
		if err := requiredField(f.name, f.value); err != nil {
			return err
		}
	}
	if math.IsNaN(d.Price) || math.IsInf(d.Price, 0) || d.Price < 0 {
		return fmt.Errorf("%w: field 'price' must be a non-negative number", ErrValidation)
	}
	return nil
}

// Validate проверяет обязательные поля комнаты. Фото необязательно.
func (d RoomDraft) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"apartment_id", d.ApartmentID},
		{"name", d.Name},
		{"equipment", d.Equipment},
	} {
		if err := requiredField(f.name, f.value); err != nil {
			return err
		}
	}
	if math.IsNaN(d.Size) || math.IsInf(d.Size, 0) || d.Size <= 0 {
		return fmt.Errorf("%w: field 'size' must be a positive number", ErrValidation)
	}
	return nil
}
