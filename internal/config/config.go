package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Leveling    LevelingConfig    `yaml:"leveling"`
	Rewards     RewardsConfig     `yaml:"rewards"`
	Battle      BattleConfig      `yaml:"battle"`
	Persistence PersistenceConfig `yaml:"persistence"`
	LogLevel    string            `yaml:"log_level"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// LevelingConfig parameterizes the XP->level curve.
type LevelingConfig struct {
	BaseXP       int64   `yaml:"base_xp"`
	GrowthFactor float64 `yaml:"growth_factor"`
	MaxLevel     int     `yaml:"max_level"`
}

// RewardsConfig holds every tunable of the battle reward formulas.
type RewardsConfig struct {
	BaseXP                int64   `yaml:"base_xp"`
	BaseCoins             int64   `yaml:"base_coins"`
	DifficultyBase        float64 `yaml:"difficulty_base"`
	VictoryXPMultiplier   float64 `yaml:"victory_xp_multiplier"`
	VictoryCoinMultiplier float64 `yaml:"victory_coin_multiplier"`
	StreakBonusMultiplier float64 `yaml:"streak_bonus_multiplier"`
	StreakBonusCap        int64   `yaml:"streak_bonus_cap"`
	TimeBonusMultiplier   float64 `yaml:"time_bonus_multiplier"`
	TimeBonusCap          int64   `yaml:"time_bonus_cap"`
	CriticalChance        float64 `yaml:"critical_chance"`
	CriticalMultiplier    float64 `yaml:"critical_multiplier"`
}

type BattleConfig struct {
	TimePerQuestion int           `yaml:"time_per_question"` // seconds
	TickInterval    time.Duration `yaml:"tick_interval"`
}

type PersistenceConfig struct {
	Dir           string        `yaml:"dir"` // empty means XDG state default
	SaveRetries   int           `yaml:"save_retries"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Load reads the YAML config at path, applying it on top of defaults.
// A missing file is an error; use Default() when no file is expected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Leveling: LevelingConfig{
			BaseXP:       1000,
			GrowthFactor: 1.5,
			MaxLevel:     100,
		},
		Rewards: RewardsConfig{
			BaseXP:                100,
			BaseCoins:             50,
			DifficultyBase:        1.2,
			VictoryXPMultiplier:   1.5,
			VictoryCoinMultiplier: 1.5,
			StreakBonusMultiplier: 0.1,
			StreakBonusCap:        500,
			TimeBonusMultiplier:   0.5,
			TimeBonusCap:          250,
			CriticalChance:        0.2,
			CriticalMultiplier:    2.0,
		},
		Battle: BattleConfig{
			TimePerQuestion: 15,
			TickInterval:    time.Second,
		},
		Persistence: PersistenceConfig{
			SaveRetries:   5,
			RetryBackoff:  500 * time.Millisecond,
			FlushInterval: 30 * time.Second,
		},
		LogLevel: "info",
	}
}

func (c *Config) validate() error {
	if c.Leveling.BaseXP <= 0 {
		return fmt.Errorf("leveling.base_xp must be positive, got %d", c.Leveling.BaseXP)
	}
	if c.Leveling.GrowthFactor <= 1 {
		return fmt.Errorf("leveling.growth_factor must exceed 1, got %g", c.Leveling.GrowthFactor)
	}
	if c.Leveling.MaxLevel < 1 {
		return fmt.Errorf("leveling.max_level must be at least 1, got %d", c.Leveling.MaxLevel)
	}
	if c.Rewards.CriticalChance < 0 || c.Rewards.CriticalChance > 1 {
		return fmt.Errorf("rewards.critical_chance must be in [0,1], got %g", c.Rewards.CriticalChance)
	}
	if c.Battle.TimePerQuestion <= 0 {
		return fmt.Errorf("battle.time_per_question must be positive, got %d", c.Battle.TimePerQuestion)
	}
	return nil
}
