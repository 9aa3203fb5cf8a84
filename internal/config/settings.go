package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/spf13/viper"
)

// Settings holds the runtime configuration resolved from viper.
type Settings struct {
	DatabasePath  string
	MasterPath    string
	ExportDir     string
	UploadDir     string
	CertDir       string
	ServerAddr    string
	OCRAPIKey     string
	OCRModel      string
	LogLevel      string
	LogFormat     string
	StartSlipNo   int
	OCRMaxTokens  int
	BatchMaxFiles int
	OCRCacheTTL   time.Duration
	ServerTLS     bool
}

// SetDefaults registers default values for every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "$HOME/.local/share/shiwake/shiwake.db")
	v.SetDefault("master.path", "")
	v.SetDefault("export.dir", "$HOME/.local/share/shiwake/output")
	v.SetDefault("export.start_slip_no", 1)
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.upload_dir", "")
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_dir", "$HOME/.local/share/shiwake/certs")
	v.SetDefault("ocr.model", "claude-sonnet-4-20250514")
	v.SetDefault("ocr.max_tokens", 2000)
	v.SetDefault("ocr.cache_ttl", time.Hour)
	v.SetDefault("batch.max_files", 200)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load resolves settings from v. The OCR API key falls back to
// ANTHROPIC_API_KEY when ocr.api_key is not configured.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		DatabasePath:  ExpandPath(v.GetString("database.path")),
		MasterPath:    ExpandPath(v.GetString("master.path")),
		ExportDir:     ExpandPath(v.GetString("export.dir")),
		UploadDir:     ExpandPath(v.GetString("server.upload_dir")),
		ServerAddr:    v.GetString("server.addr"),
		ServerTLS:     v.GetBool("server.tls"),
		CertDir:       ExpandPath(v.GetString("server.cert_dir")),
		OCRAPIKey:     v.GetString("ocr.api_key"),
		OCRModel:      v.GetString("ocr.model"),
		OCRMaxTokens:  v.GetInt("ocr.max_tokens"),
		OCRCacheTTL:   v.GetDuration("ocr.cache_ttl"),
		StartSlipNo:   v.GetInt("export.start_slip_no"),
		BatchMaxFiles: v.GetInt("batch.max_files"),
		LogLevel:      v.GetString("logging.level"),
		LogFormat:     v.GetString("logging.format"),
	}
	if s.OCRAPIKey == "" {
		s.OCRAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if s.DatabasePath == "" {
		return nil, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if s.StartSlipNo < 1 {
		return nil, fmt.Errorf("%w: export.start_slip_no must be at least 1", common.ErrInvalidConfig)
	}
	if s.BatchMaxFiles < 1 {
		return nil, fmt.Errorf("%w: batch.max_files must be at least 1", common.ErrInvalidConfig)
	}
	return s, nil
}
