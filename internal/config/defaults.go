package config

// ApplyDefaults sets default values for any zero values in cfg.
// A zero threshold is treated as unset and defaulted to 0.5; use a small
// positive value to effectively disable threshold filtering.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = ".silicon/index.db"
	}
	if cfg.Vault.DebounceMillis == 0 {
		cfg.Vault.DebounceMillis = 400
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-large"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 3072
	}
	if cfg.Embedding.MaxChunkSize == 0 {
		cfg.Embedding.MaxChunkSize = 2000
	}
	if cfg.Embedding.Precision == 0 {
		cfg.Embedding.Precision = 6
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1024
	}
	if cfg.Search.Threshold == 0 {
		cfg.Search.Threshold = 0.5
	}
	if cfg.Search.Candidates == 0 {
		cfg.Search.Candidates = 50
	}
}
