package render

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/logger"
	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/refdata"
)

// Design is the per-clinic visual profile used on rendered bills.
type Design struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	Font           string `json:"font"`
}

var (
	primaryPalette   = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd"}
	secondaryPalette = []string{"#aec7e8", "#ffbb78", "#98df8a", "#ff9896", "#c5b0d5"}
	fonts            = []string{"Helvetica", "Times", "Courier"}
)

func defaultDesign() Design {
	return Design{PrimaryColor: primaryPalette[0], SecondaryColor: secondaryPalette[0], Font: fonts[0]}
}

// LoadOrCreateDesigns returns the per-clinic design map from path, or creates
// one (randomized per clinic) and persists it if the file does not exist.
func LoadOrCreateDesigns(path string, clinics []refdata.ClinicRecord, f *gofakeit.Faker) (map[string]Design, error) {
	if data, err := os.ReadFile(path); err == nil {
		designs := make(map[string]Design)
		if err := json.Unmarshal(data, &designs); err != nil {
			return nil, fmt.Errorf("parse design file %s: %w", path, err)
		}
		logger.L().Debugw("loaded clinic designs", "path", path, "clinics", len(designs))
		return designs, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read design file %s: %w", path, err)
	}

	designs := make(map[string]Design, len(clinics))
	for _, c := range clinics {
		designs[c.Name] = Design{
			PrimaryColor:   f.RandomString(primaryPalette),
			SecondaryColor: f.RandomString(secondaryPalette),
			Font:           f.RandomString(fonts),
		}
	}
	data, err := json.MarshalIndent(designs, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal designs: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write design file %s: %w", path, err)
	}
	logger.L().Infow("created clinic designs", "path", path, "clinics", len(designs))
	return designs, nil
}

// hexToRGB converts a "#rrggbb" color to its components. Bad values fall back
// to black rather than failing a render.
func hexToRGB(hex string) (int, int, int) {
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0
	}
	return r, g, b
}
