package env

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file from the working directory if one exists.
// S3 credentials are usually supplied this way rather than as flags.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system envs")
	}
}

// GetEnv returns the value of key, or fallback when it is unset.
func GetEnv(key string, fallback string) string {
	if value, exist := os.LookupEnv(key); exist {
		return value
	}
	return fallback
}
