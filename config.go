package MinecraftWorldServer

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Protocol constants for Minecraft 1.21.4.
const (
	minecraftProtocol    = 769
	minecraftVersionName = "1.21.4"
)

// Config holds the server configuration loaded from server.yaml.
type Config struct {
	Port         string `yaml:"port"`
	MaxPlayers   int    `yaml:"max_players"`
	ViewDistance int    `yaml:"view_distance"`
	SimDistance  int    `yaml:"sim_distance"`
	Motd         string `yaml:"motd"`
}

// DefaultConfig returns the configuration used when no server.yaml exists.
func DefaultConfig() Config {
	return Config{
		Port:         "25565",
		MaxPlayers:   1,
		ViewDistance: 2,
		SimDistance:  2,
		Motd:         "Minecraft World Server Go",
	}
}

// LoadConfig reads a YAML configuration file and applies defaults
// for any field left unset.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}

	if cfg.Port == "" {
		cfg.Port = "25565"
	}
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = 1
	}
	if cfg.ViewDistance == 0 {
		cfg.ViewDistance = 2
	}
	if cfg.SimDistance == 0 {
		cfg.SimDistance = cfg.ViewDistance
	}
	return cfg, nil
}
