package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the location engine.
//
// Fields:
// - Env: The current environment (local, development, production).
// - Port: The port for the HTTP and monitoring server.
// - GoogleAPIKey: Credential for the keyed reverse-geocoding provider; empty skips it.
// - GeocoderRateLimit: Requests per second allowed against the keyless provider.
// - MQTTBroker: Broker URL for the device position feed; empty disables the feed.
// - MQTTTopic: Topic pattern devices publish positions on.
// - FallbackLatitude/FallbackLongitude: The static last-resort coordinate.
// - Database: Configuration settings for the PostgreSQL sites database.
type Config struct {
	Env               string
	Port              int
	GoogleAPIKey      string
	GeocoderRateLimit int
	MQTTBroker        string
	MQTTTopic         string
	FallbackLatitude  float64
	FallbackLongitude float64
	Database          PostgresConfig
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// MustLoad loads the configuration from the environment and returns a Config.
func MustLoad() *Config {
	_ = godotenv.Load()

	port, err := strconv.Atoi(setDefaultEnv("BEACON_PORT", "8080"))
	if err != nil {
		panic("failed to parse port for HTTP server from configuration")
	}

	rateLimit, err := strconv.Atoi(setDefaultEnv("BEACON_GEOCODER_RATE_LIMIT", "1"))
	if err != nil {
		panic("failed to parse geocoder rate limit from configuration, must be an integer")
	}

	// Country-centroid placeholder used when every geolocation tier fails.
	fallbackLat, err := strconv.ParseFloat(setDefaultEnv("BEACON_FALLBACK_LAT", "-2.548926"), 64)
	if err != nil {
		panic("failed to parse fallback latitude from configuration")
	}

	fallbackLng, err := strconv.ParseFloat(setDefaultEnv("BEACON_FALLBACK_LNG", "118.014863"), 64)
	if err != nil {
		panic("failed to parse fallback longitude from configuration")
	}

	return &Config{
		Env:               setDefaultEnv("BEACON_ENV", "production"),
		Port:              port,
		GoogleAPIKey:      os.Getenv("BEACON_GOOGLE_API_KEY"),
		GeocoderRateLimit: rateLimit,
		MQTTBroker:        os.Getenv("BEACON_MQTT_BROKER"),
		MQTTTopic:         setDefaultEnv("BEACON_MQTT_TOPIC", "field/device/+/position"),
		FallbackLatitude:  fallbackLat,
		FallbackLongitude: fallbackLng,
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     setDefaultEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
	}
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
