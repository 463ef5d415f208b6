// Package config implements the Configuration collaborator (spec.md's
// §4.13 "collaborator contract", SPEC_FULL.md ADDED detail): a
// viper-backed loader that binds a JSON/YAML/TOML profile into an
// immutable typed Profile. Grounded on the niceyeti-tabular repo's
// viper-based typed-config loading style from the retrieval pack (there is
// no config file reader elsewhere in this history — tuning constants were
// hardcoded in farming.go/movement.go, which this profile now replaces).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// VarianceLevel mirrors pathfind.VarianceLevel's three names without this
// package depending on pathfind (config is loaded before any subsystem
// exists).
type VarianceLevel string

const (
	VarianceConservative VarianceLevel = "conservative"
	VarianceModerate     VarianceLevel = "moderate"
	VarianceAggressive   VarianceLevel = "aggressive"
)

// Calibration holds the empirical input-conversion constants spec.md §9
// leaves as Open Questions, resolved here as profile fields.
type Calibration struct {
	PxPerTile      float64 `mapstructure:"pxPerTile"`
	MinimapRadius  int     `mapstructure:"minimapRadius"`
	MinimapCenterX int     `mapstructure:"minimapCenterX"`
	MinimapCenterY int     `mapstructure:"minimapCenterY"`

	// InventoryPanel is the fixed on-screen rectangle of the 4x7
	// inventory grid (spec.md §3: 28 slots), used to click slots whose
	// telemetry entry carries no screen box (only /bank entries do,
	// per spec.md §6).
	InventoryPanelX int `mapstructure:"inventoryPanelX"`
	InventoryPanelY int `mapstructure:"inventoryPanelY"`
	InventoryPanelW int `mapstructure:"inventoryPanelW"`
	InventoryPanelH int `mapstructure:"inventoryPanelH"`

	// GameAreaW/H are the dimensions of the game client's render surface,
	// clamping drag/click targets for the camera controller and entity
	// interactor (browser.go fixed its window at 800x600).
	GameAreaW int `mapstructure:"gameAreaW"`
	GameAreaH int `mapstructure:"gameAreaH"`
}

// Humanization bundles the tunables the humanize package needs.
type Humanization struct {
	IdleBreakFreqMinMinutes int `mapstructure:"idleBreakFreqMinMinutes"`
	IdleBreakFreqMaxMinutes int `mapstructure:"idleBreakFreqMaxMinutes"`
	IdleBreakDurMinMinutes  int `mapstructure:"idleBreakDurMinMinutes"`
	IdleBreakDurMaxMinutes  int `mapstructure:"idleBreakDurMaxMinutes"`

	LogoutBreakFreqMinMinutes int `mapstructure:"logoutBreakFreqMinMinutes"`
	LogoutBreakFreqMaxMinutes int `mapstructure:"logoutBreakFreqMaxMinutes"`
	LogoutBreakDurMinMinutes  int `mapstructure:"logoutBreakDurMinMinutes"`
	LogoutBreakDurMaxMinutes  int `mapstructure:"logoutBreakDurMaxMinutes"`

	IdleMicroFreqMinSeconds int `mapstructure:"idleMicroFreqMinSeconds"`
	IdleMicroFreqMaxSeconds int `mapstructure:"idleMicroFreqMaxSeconds"`
}

// WorldTile is a plain (x, y, plane) triple usable directly in profile
// YAML/JSON/TOML, converted to geometry.WorldCoord by consumers.
type WorldTile struct {
	X     int `mapstructure:"x"`
	Y     int `mapstructure:"y"`
	Plane int `mapstructure:"plane"`
}

// TeleportItem names an escape item and the menu action that activates it
// (spec.md §8 scenario 5: "action Break/Rub, policy-defined").
type TeleportItem struct {
	ID     int    `mapstructure:"id"`
	Action string `mapstructure:"action"`
}

// Policy bundles the gathering/combat/banking ids and thresholds named in
// spec.md §4.10 and §9's policy-interface field list.
type Policy struct {
	ResourceIDs    []int  `mapstructure:"resourceIds"`
	GatherAction   string `mapstructure:"gatherAction"`
	TargetIDs      []int  `mapstructure:"targetIds"`
	LootIDs        []int  `mapstructure:"lootIds"`
	FoodIDs        []int  `mapstructure:"foodIds"`
	FoodThreshold  int    `mapstructure:"foodThreshold"`         // percent, [0,100]
	MinFoodCount   int    `mapstructure:"minFoodCount"`
	EscapeHealth   int    `mapstructure:"escapeHealthThreshold"` // percent, [0,100]
	TeleportItem   *TeleportItem `mapstructure:"teleportItem"`
	BankObjectIDs  []int  `mapstructure:"bankObjectIds"`
	EquipmentSlots map[string]int `mapstructure:"equipmentSlots"`
	InventoryTargets map[string]int `mapstructure:"inventoryTargets"`
	PowerDrop      bool   `mapstructure:"powerDrop"`
	PowerDropIDs   []int  `mapstructure:"powerDropIds"`
	BankingEnabled bool   `mapstructure:"bankingEnabled"`
	WorkAreaPath   []WorldTile `mapstructure:"workAreaPath"`
	BankPath       []WorldTile `mapstructure:"bankPath"`
}

// Profile is the immutable, fully-validated bot configuration (spec.md §3
// "Profile configuration is immutable after load").
type Profile struct {
	Name             string        `mapstructure:"name"`
	TelemetryBaseURL string        `mapstructure:"telemetryBaseUrl"`
	VarianceLevel    VarianceLevel `mapstructure:"varianceLevel"`
	Calibration      Calibration   `mapstructure:"calibration"`
	Humanization     Humanization  `mapstructure:"humanization"`
	Policy           Policy        `mapstructure:"policy"`
	CredentialKey    string        `mapstructure:"credentialKey"`
	EventReceiver    struct {
		Enabled bool   `mapstructure:"enabled"`
		Addr    string `mapstructure:"addr"`
	} `mapstructure:"eventReceiver"`

	// CollisionArchivePath points at the ZIP-packed collision dataset
	// (spec.md §6). Empty disables pathfinding; walkTo then always uses
	// the linear waypoint fallback.
	CollisionArchivePath string `mapstructure:"collisionArchivePath"`
	// StatsDBPath is the sqlite3 database file the Statistics Store
	// persists to (spec.md §4.11 step 6).
	StatsDBPath string `mapstructure:"statsDbPath"`
}

// Load reads path (JSON, YAML, or TOML, dispatched by extension via viper)
// and returns a validated, immutable Profile.
func Load(path string) (*Profile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var p Profile
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	if err := validate(&p); err != nil {
		return nil, fmt.Errorf("config: invalid profile %s: %w", path, err)
	}
	return &p, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("varianceLevel", string(VarianceModerate))
	v.SetDefault("calibration.pxPerTile", 4.0)
	v.SetDefault("calibration.minimapRadius", 80)
	v.SetDefault("calibration.inventoryPanelX", 560)
	v.SetDefault("calibration.inventoryPanelY", 205)
	v.SetDefault("calibration.inventoryPanelW", 190)
	v.SetDefault("calibration.inventoryPanelH", 270)
	v.SetDefault("calibration.gameAreaW", 800)
	v.SetDefault("calibration.gameAreaH", 600)
	v.SetDefault("humanization.idleMicroFreqMinSeconds", 30)
	v.SetDefault("humanization.idleMicroFreqMaxSeconds", 90)
	v.SetDefault("statsDbPath", "bot-stats.db")
}

func validate(p *Profile) error {
	for _, id := range p.Policy.ResourceIDs {
		if id < 0 {
			return fmt.Errorf("policy.resourceIds must be non-negative, got %d", id)
		}
	}
	for _, id := range p.Policy.TargetIDs {
		if id < 0 {
			return fmt.Errorf("policy.targetIds must be non-negative, got %d", id)
		}
	}
	for _, id := range p.Policy.LootIDs {
		if id < 0 {
			return fmt.Errorf("policy.lootIds must be non-negative, got %d", id)
		}
	}
	for _, id := range p.Policy.BankObjectIDs {
		if id < 0 {
			return fmt.Errorf("policy.bankObjectIds must be non-negative, got %d", id)
		}
	}
	if p.Policy.FoodThreshold < 0 || p.Policy.FoodThreshold > 100 {
		return fmt.Errorf("policy.foodThreshold must be in [0,100], got %d", p.Policy.FoodThreshold)
	}
	if p.Policy.EscapeHealth < 0 || p.Policy.EscapeHealth > 100 {
		return fmt.Errorf("policy.escapeHealthThreshold must be in [0,100], got %d", p.Policy.EscapeHealth)
	}

	switch VarianceLevel(strings.ToLower(string(p.VarianceLevel))) {
	case VarianceConservative, VarianceModerate, VarianceAggressive:
	default:
		return fmt.Errorf("varianceLevel must be one of conservative/moderate/aggressive, got %q", p.VarianceLevel)
	}
	return nil
}
