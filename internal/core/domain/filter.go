package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// FilterListings возвращает объявления, подходящие под критерии, в исходном порядке.
// Локация сравнивается как подстрока без учёта регистра, цена - включительно (price <= max).
// Входной срез не изменяется.
func FilterListings(listings []Listing, criteria Criteria) []Listing {
	result := make([]Listing, 0, len(listings))
	if len(listings) == 0 {
		return result
	}

	// Caser хранит состояние, поэтому создаём его на каждый вызов
	folder := cases.Fold()
	query := folder.String(criteria.LocationQuery)

	for _, listing := range listings {
		if query != "" && !strings.Contains(folder.String(listing.Location), query) {
			continue
		}
		if criteria.MaxPrice != nil && listing.Price > *criteria.MaxPrice {
			continue
		}
		result = append(result, listing)
	}
	return result
}
