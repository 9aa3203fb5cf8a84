package config

import (
	"testing"
	"time"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	v := viper.New()
	SetDefaults(v)

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/.local/share/shiwake/shiwake.db", s.DatabasePath)
	assert.Equal(t, "/home/tester/.local/share/shiwake/output", s.ExportDir)
	assert.Equal(t, 1, s.StartSlipNo)
	assert.Equal(t, "sk-test", s.OCRAPIKey)
	assert.Equal(t, 200, s.BatchMaxFiles)
	assert.Equal(t, time.Hour, s.OCRCacheTTL)
	assert.Empty(t, s.UploadDir)
}

func TestLoad_CacheTTLString(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("ocr.cache_ttl", "15m")

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, s.OCRCacheTTL)
}

func TestLoad_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("export.start_slip_no", 0)

	_, err := Load(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	v = viper.New()
	SetDefaults(v)
	v.Set("database.path", "")
	_, err = Load(v)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("SHIWAKE_DIR", "/srv/shiwake")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/home/tester/data.db", ExpandPath("~/data.db"))
	assert.Equal(t, "/home/tester", ExpandPath("~"))
	assert.Equal(t, "/srv/shiwake/master.yaml", ExpandPath("$SHIWAKE_DIR/master.yaml"))
}

func TestExpandPath_Cleans(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/ledger.db", ExpandPath("~/data/../ledger.db"))
	assert.Equal(t, "~other/x", ExpandPath("~other/x"))
}
