// Package config loads runtime settings from an optional JSON config file
// with sane defaults for every key.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	"p2racer/pkg/types"
)

// Config is everything the binary needs beyond flags.
type Config struct {
	Listen   string
	LogLevel string
	Name     string
	Room     types.RoomConfig
}

// Load reads p2racer.cfg.json from configDir if present; a missing file just
// means defaults. Any other read error is returned.
func Load(configDir string) (Config, error) {
	viper.SetDefault("listen", ":7780")
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("name", "driver")

	viper.SetDefault("room.tickRate", 60)
	viper.SetDefault("room.snapshotIntervalMs", 50)
	viper.SetDefault("room.inputIntervalMs", 33)
	viper.SetDefault("room.electionTimeoutMs", 2200)
	viper.SetDefault("room.maxFrameDelta", 0.08)

	viper.SetConfigName("p2racer.cfg.json")
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	room := types.RoomConfig{
		TickRate:         viper.GetInt("room.tickRate"),
		SnapshotInterval: time.Duration(viper.GetInt("room.snapshotIntervalMs")) * time.Millisecond,
		InputInterval:    time.Duration(viper.GetInt("room.inputIntervalMs")) * time.Millisecond,
		ElectionTimeout:  time.Duration(viper.GetInt("room.electionTimeoutMs")) * time.Millisecond,
		MaxFrameDelta:    viper.GetFloat64("room.maxFrameDelta"),
	}.Sanitized()

	return Config{
		Listen:   viper.GetString("listen"),
		LogLevel: viper.GetString("logLevel"),
		Name:     viper.GetString("name"),
		Room:     room,
	}, nil
}
