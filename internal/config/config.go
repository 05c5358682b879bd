package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "CALENDAR_"

type Application struct {
	Host     string   `koanf:"host"`
	Port     int      `koanf:"port"`
	Storage  Storage  `koanf:"storage"`
	Database Database `koanf:"db"`
	Calendar Calendar `koanf:"calendar"`
}

type Storage struct {
	// Driver is "postgres" or "memory".
	Driver string `koanf:"driver"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Calendar struct {
	// Timezone is an IANA name; event starts are normalized to it.
	Timezone string `koanf:"timezone"`
	// HorizonDays bounds the expansion of rules without an end date.
	HorizonDays    int `koanf:"horizondays"`
	MaxOccurrences int `koanf:"maxoccurrences"`
	// MonthEnd is "overflow" or "clamp".
	MonthEnd string `koanf:"monthend"`
}

func Defaults() Application {
	return Application{
		Host: "http://localhost:8181",
		Port: 8181,
		Storage: Storage{
			Driver: "postgres",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "calendar",
			Pass:   "",
			Name:   "calendar",
			Schema: "calendar",
		},
		Calendar: Calendar{
			Timezone:       "UTC",
			HorizonDays:    365,
			MaxOccurrences: 100,
			MonthEnd:       "overflow",
		},
	}
}

// Load reads the configuration in layers: defaults, the YAML file at path,
// then CALENDAR_* environment variables. A .env file in the working
// directory is loaded into the environment first when present.
func Load(path string) (Application, error) {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			log.Debug("No .env file found")
		} else {
			log.Errorf("error loading .env file: %v", err)
			return Application{}, err
		}
	}

	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			// CALENDAR_DB_HOST -> db.host
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
