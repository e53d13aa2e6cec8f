package model

// Region classifies where a source reports from
type Region string

const (
	RegionAmericasUS    Region = "americas_us"
	RegionAmericasLatam Region = "americas_latam"
	RegionEurope        Region = "europe"
	RegionAsiaPacific   Region = "asia_pacific"
	RegionMiddleEast    Region = "middle_east"
	RegionAfrica        Region = "africa"
	RegionLocalNY       Region = "local_ny"
	RegionGlobal        Region = "global"
)

// KnownRegions lists every valid region value
var KnownRegions = []Region{
	RegionAmericasUS,
	RegionAmericasLatam,
	RegionEurope,
	RegionAsiaPacific,
	RegionMiddleEast,
	RegionAfrica,
	RegionLocalNY,
	RegionGlobal,
}

// Valid reports whether the region is one of the known values
func (r Region) Valid() bool {
	for _, known := range KnownRegions {
		if r == known {
			return true
		}
	}
	return false
}

// Category classifies the kind of news a source carries
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryPolitics   Category = "politics"
	CategoryEconomy    Category = "economy"
	CategoryTechnology Category = "technology"
	CategoryLocal      Category = "local"
)

// KnownCategories lists every valid category value
var KnownCategories = []Category{
	CategoryGeneral,
	CategoryPolitics,
	CategoryEconomy,
	CategoryTechnology,
	CategoryLocal,
}

// Valid reports whether the category is one of the known values
func (c Category) Valid() bool {
	for _, known := range KnownCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Source describes a configured remote news feed. Read-only to the pipeline.
type Source struct {
	Name     string   `yaml:"name" json:"name"`
	Region   Region   `yaml:"region" json:"region"`
	Category Category `yaml:"category" json:"category"`
	URL      string   `yaml:"url" json:"url"`
	Language string   `yaml:"language" json:"language"`
	Priority string   `yaml:"priority" json:"priority"` // high, medium, low
	Enabled  bool     `yaml:"enabled" json:"enabled"`
}
