package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// SavedHotel maps a short alias to a RoomBoss hotel id.
type SavedHotel struct {
	ID           string `json:"id"`
	Alias        string `json:"alias"`
	Name         string `json:"name"`
	CountryCode  string `json:"country_code"`
	LocationCode string `json:"location_code"`
	Currency     string `json:"currency,omitempty"`
}

type HotelsFile struct {
	Hotels []SavedHotel `json:"hotels"`
}

func LoadHotels() ([]SavedHotel, error) {
	path, err := HotelsPath()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []SavedHotel{}, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("hotels path is a directory: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var payload HotelsFile
	if err := json.NewDecoder(file).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Hotels == nil {
		payload.Hotels = []SavedHotel{}
	}
	return payload.Hotels, nil
}

func SaveHotels(hotels []SavedHotel) error {
	if _, err := ensureConfigDir(); err != nil {
		return err
	}

	path, err := HotelsPath()
	if err != nil {
		return err
	}

	sorted := make([]SavedHotel, len(hotels))
	copy(sorted, hotels)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Alias) < strings.ToLower(sorted[j].Alias)
	})
	for i := range sorted {
		sorted[i].CountryCode = strings.ToUpper(sorted[i].CountryCode)
		sorted[i].LocationCode = strings.ToUpper(sorted[i].LocationCode)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(HotelsFile{Hotels: sorted})
}

func FindHotelByAlias(hotels []SavedHotel, alias string) (SavedHotel, bool) {
	needle := strings.ToLower(strings.TrimSpace(alias))
	for _, hotel := range hotels {
		if strings.ToLower(hotel.Alias) == needle {
			return hotel, true
		}
	}
	return SavedHotel{}, false
}

// ResolveHotelID accepts either a saved alias or a raw hotel id.
func ResolveHotelID(hotels []SavedHotel, aliasOrID string) string {
	if hotel, ok := FindHotelByAlias(hotels, aliasOrID); ok {
		return hotel.ID
	}
	return strings.TrimSpace(aliasOrID)
}
