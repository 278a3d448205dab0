package domain

import (
	"strings"
	"time"
)

// Asset is a catalog entry with a finite number of interchangeable units.
// TotalQuantity is owned by the catalog; reservations never change it.
type Asset struct {
	ID            string
	Name          string
	Type          string
	Location      string
	TotalQuantity int
	Active        bool
	CreatedAt     time.Time
}

// AssetAvailability is an asset annotated with units free right now.
type AssetAvailability struct {
	Asset
	AvailableNow int
}

// AssetFilter narrows a catalog listing. Each non-empty field is a
// case-insensitive substring match; Search matches the name.
type AssetFilter struct {
	Location string
	Type     string
	Search   string
}

func (f AssetFilter) Matches(a Asset) bool {
	return containsFold(a.Location, f.Location) &&
		containsFold(a.Type, f.Type) &&
		containsFold(a.Name, f.Search)
}

func containsFold(value, part string) bool {
	part = strings.TrimSpace(part)
	if part == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(part))
}
