package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress           string
	MongoURI                string
	MongoDB                 string
	DataDir                 string
	GoogleMapsAPIKey        string
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	JWTSecret               string
	AllowedOrigins          []string
}

func Load() *Config {
	// .env.local wins over .env for local development.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	return &Config{
		ServerAddress:           getEnv("SERVER_ADDRESS", ":8080"),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDB:                 getEnv("MONGO_DB", "wanderlist"),
		DataDir:                 getEnv("DATA_DIR", "./data"),
		GoogleMapsAPIKey:        getEnv("GOOGLE_MAPS_API_KEY", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		AllowedOrigins:          parseOrigins(getEnv("ALLOWED_ORIGINS", "*")),
	}
}

func parseOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
