package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

var (
	Port       = "8080"
	APIBaseURL = "http://localhost:8080/api"

	// Storage settings
	DBPath    = "./site-admin.db"
	UploadDir = "./uploads"
	UploadURL = "/uploads/"

	// Section definitions (yaml, toml or json)
	SectionsFile = "./sections.yml"

	// Plan type gating list sizes ("pro" or anything else)
	PlanType = ""

	SessionSecret = "site-admin-dev-secret"
	LogLevel      = "info"
)

func Init() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found or error loading it.")
	}

	Port = getEnv("PORT", Port)
	APIBaseURL = strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:"+Port+"/api"), "/")

	DBPath = getEnv("DB_PATH", DBPath)
	UploadDir = getEnv("UPLOAD_DIR", UploadDir)
	UploadURL = getEnv("UPLOAD_URL", UploadURL)
	if !strings.HasSuffix(UploadURL, "/") {
		UploadURL += "/"
	}

	SectionsFile = getEnv("SECTIONS_FILE", SectionsFile)
	PlanType = getEnv("PLAN_TYPE", PlanType)
	SessionSecret = getEnv("SESSION_SECRET", SessionSecret)
	LogLevel = getEnv("LOG_LEVEL", LogLevel)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
