package config

import (
	"encoding/json"
	"os"
	"sync"
)

type Config struct {
	Exchange map[string]struct {
		Enabled      bool
		WebsocketUrl string //empty means the exchange default
	}

	Pump struct {
		PollIntervalMs  int
		ErrorBackoffSec int
	}

	Arbitrage struct {
		Symbols          []string
		MinProfitPercent float64
		ScanIntervalSec  int
	}

	Discord struct {
		WebhookUrl string
	}

	Database struct {
		Path string
	}

	Server struct {
		Port int
	}
}

var once sync.Once
var config *Config

func GetConfig() *Config {
	once.Do(func() {
		configBytes, err := os.ReadFile("config.json")
		if err != nil {
			panic(err)
		}
		json.Unmarshal(configBytes, &config)
	})

	return config
}
