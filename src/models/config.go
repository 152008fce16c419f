package models

// MConfig Structure
type MConfig struct {
	Name      string         `yaml:"name"`
	Host      string         `yaml:"host"`
	Port      int            `yaml:"port"`
	LogLevel  string         `yaml:"log_level"`
	Storage   MStorageConfig `yaml:"storage"`
	Network   MNetworkConfig `yaml:"network"`
	Source    MSourceConfig  `yaml:"source"`
	Retention MRetention     `yaml:"retention"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBConnectionString string `yaml:"db_connection_string"`
	RawPath            string `yaml:"raw_path"`
	DateSummaryPath    string `yaml:"date_summary_path"`
	CombinedPath       string `yaml:"combined_path"`
}

type MNetworkConfig struct {
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	DelayMinMs     int      `yaml:"delay_min_ms"`
	DelayMaxMs     int      `yaml:"delay_max_ms"`
	Proxies        []string `yaml:"proxies"`
	UserAgent      string   `yaml:"user_agent"` // Optional, rotates when empty
}

type MSourceConfig struct {
	Name        string `yaml:"name"`
	BaseURL     string `yaml:"base_url"`
	CalendarMIC string `yaml:"calendar_mic"`
	MaxPages    int    `yaml:"max_pages"` // 0 = all pages
}

type MRetention struct {
	Days int `yaml:"days"`
}
