package model

import (
	"fmt"
	"strings"
	"time"
)

// Species is one catalog entry.
type Species struct {
	ID              int64     `json:"id"`
	ScientificName  string    `json:"scientific_name"`
	CommonName      string    `json:"common_name,omitempty"`
	Description     string    `json:"description,omitempty"`
	Image           string    `json:"image,omitempty"`
	Author          string    `json:"author,omitempty"`
	Kingdom         string    `json:"kingdom,omitempty"`
	TotalPopulation *int64    `json:"total_population,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Kingdoms.
const (
	KingdomAnimalia = "Animalia"
	KingdomPlantae  = "Plantae"
	KingdomFungi    = "Fungi"
	KingdomProtista = "Protista"
	KingdomArchaea  = "Archaea"
	KingdomBacteria = "Bacteria"
)

// Kingdoms lists the accepted kingdom values in display order.
var Kingdoms = []string{
	KingdomAnimalia,
	KingdomPlantae,
	KingdomFungi,
	KingdomProtista,
	KingdomArchaea,
	KingdomBacteria,
}

// ValidKingdom reports whether k is empty or one of Kingdoms.
func ValidKingdom(k string) bool {
	if k == "" {
		return true
	}
	for _, known := range Kingdoms {
		if k == known {
			return true
		}
	}
	return false
}

// LocalImagePath is the path an uploaded species image is served from.
func LocalImagePath(id int64) string {
	return fmt.Sprintf("/species/%d/image", id)
}

// ValidImageURL reports whether u is empty, an absolute http(s) URL, or a
// local image path.
func ValidImageURL(u string) bool {
	if u == "" {
		return true
	}
	if strings.HasPrefix(u, "/species/") && strings.HasSuffix(u, "/image") {
		return true
	}
	return strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://")
}
