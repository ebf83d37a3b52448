package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/typegait/data/typegait.db"
	}
	if cfg.Identify.DefaultTopK == 0 {
		cfg.Identify.DefaultTopK = 5
	}
	if cfg.Identify.MaxTopK == 0 {
		cfg.Identify.MaxTopK = 50
	}
}
