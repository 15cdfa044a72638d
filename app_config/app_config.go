package app_config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// AppConfig is the application wide tuning config for the api server.
// Secrets (Reddit credentials, OpenAI api key, DB credentials) live in the
// environment, not here.
type AppConfig struct {
	// Port the api server listens on.
	SERVER_PORT int `yaml:"SERVER_PORT"`
	// Number of top posts requested from the forum api per fetch.
	TOP_POSTS_LIMIT int `yaml:"TOP_POSTS_LIMIT"`
	// Post cache freshness window in hours. A forum fetched within this
	// window is served from the store without an upstream call.
	POST_CACHE_TTL_HOURS int64 `yaml:"POST_CACHE_TTL_HOURS"`
	// Classification freshness window in days.
	CLASSIFICATION_TTL_DAYS int64 `yaml:"CLASSIFICATION_TTL_DAYS"`
	// Pause between classification service calls in milliseconds, to stay
	// under the upstream rate limit.
	CLASSIFY_PAUSE_MS int64 `yaml:"CLASSIFY_PAUSE_MS"`
	// Language model used for post classification.
	OPENAI_MODEL string `yaml:"OPENAI_MODEL"`
}

func (c AppConfig) PostCacheTTL() time.Duration {
	return time.Duration(c.POST_CACHE_TTL_HOURS) * time.Hour
}

func (c AppConfig) ClassificationTTL() time.Duration {
	return time.Duration(c.CLASSIFICATION_TTL_DAYS) * 24 * time.Hour
}

func (c AppConfig) ClassifyPause() time.Duration {
	return time.Duration(c.CLASSIFY_PAUSE_MS) * time.Millisecond
}

func ParseAppConfig(path string) AppConfig {
	c := AppConfig{}
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("yamlFile. get err: ", err.Error())
	}
	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		log.Fatal("Unmarshal: ", err)
	}
	return c
}
