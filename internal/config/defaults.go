package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Elasticsearch.Addresses) == 0 {
		cfg.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/karte/data/karte.db"
	}
	if cfg.Query.DefaultSize == 0 {
		cfg.Query.DefaultSize = 50
	}
	if cfg.Query.MaxSize == 0 {
		cfg.Query.MaxSize = 1000
	}
	if cfg.Query.JoinFetchLimit == 0 {
		cfg.Query.JoinFetchLimit = 1000
	}
	if cfg.Export.MaxRows == 0 {
		cfg.Export.MaxRows = 10000
	}
}
