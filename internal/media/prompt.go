// Package media generates and attaches hero images.
package media

import (
	"fmt"
	"strings"
)

type scene struct {
	keywords []string
	setting  string
	action   string
}

var scenes = []scene{
	{[]string{"excavator", "bulldozer", "loader", "backhoe"}, "active commercial construction site", "in operation, moving earth"},
	{[]string{"crane"}, "major construction project", "lifting heavy materials"},
	{[]string{"forklift", "pallet"}, "modern warehouse facility", "lifting pallets"},
	{[]string{"semi", "truck", "trailer"}, "highway or trucking depot", "on an open highway"},
	{[]string{"tractor", "combine"}, "expansive agricultural field", "working in fields"},
}

var defaultScene = scene{setting: "professional industrial facility", action: "in a commercial environment"}

func sceneFor(equipment string) scene {
	lower := strings.ToLower(equipment)
	for _, s := range scenes {
		for _, kw := range s.keywords {
			if strings.Contains(lower, kw) {
				return s
			}
		}
	}
	return defaultScene
}

// Prompt describes a hero photograph of equipment, optionally in geo.
func Prompt(equipment, geo string) string {
	s := sceneFor(equipment)
	place := s.setting
	if geo != "" {
		place += " in " + geo
	}
	return fmt.Sprintf(`Ultra-realistic professional photograph of a %s %s at a %s.
Professional commercial photography, natural daylight, clean composition, high detail, modern equipment.
No text, logos, watermarks. No people facing camera. Warm professional color grading.`, equipment, s.action, place)
}

// AltText is the hero image alt text of equipment.
func AltText(equipment, brand string) string {
	if brand == "" {
		brand = "EquipFlow"
	}
	return fmt.Sprintf("Professional %s available for financing - %s", equipment, brand)
}
