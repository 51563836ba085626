package config

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Cookie   CookieConfig   `yaml:"cookie"`
	Webhook  WebhookConfig  `yaml:"webhook"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	BasePath       string `yaml:"base_path"`
	RequestTimeout string `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	Host             string `yaml:"host"`
	Port             string `yaml:"port"`
	Driver           string `yaml:"driver"`
	ConnectionString string `yaml:"connection_string"`
	RedisAddr        string `yaml:"redis_addr"`
	Retention        string `yaml:"retention"`
}

type JWTConfig struct {
	SecretKey       string `yaml:"secret_key"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
}

type CookieConfig struct {
	Path   string `yaml:"path"`
	Secure bool   `yaml:"secure"`
}

type WebhookConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}
