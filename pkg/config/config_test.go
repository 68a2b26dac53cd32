package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitFromEnv(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env here

	t.Setenv("PORT", "9090")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("UPLOAD_URL", "/media")
	t.Setenv("PLAN_TYPE", "pro")
	t.Setenv("DB_PATH", "/tmp/x.db")

	Init()
	require.Equal(t, "9090", Port)
	require.Equal(t, "http://localhost:9090/api", APIBaseURL)
	require.Equal(t, "/media/", UploadURL)
	require.Equal(t, "pro", PlanType)
	require.Equal(t, "/tmp/x.db", DBPath)

	t.Setenv("API_BASE_URL", "https://cms.example.com/api/")
	Init()
	require.Equal(t, "https://cms.example.com/api", APIBaseURL)
}
