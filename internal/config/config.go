package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds runtime settings read from the environment.
type Config struct {
	HTTPAddr        string
	WebserverOrigin string
	Production      bool

	DatabaseURL  string
	DatabaseName string
	DBMaxConns   int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSecure   bool

	PasswordCost int

	LogLevel string
	LogDev   bool
	LogFile  string
}

func defaults(v *viper.Viper) {
	v.SetDefault("http_addr", "0.0.0.0:3000")
	v.SetDefault("webserver_origin", "http://localhost:3000")
	v.SetDefault("node_env", "development")
	v.SetDefault("postgres_db", "local_db")
	v.SetDefault("db_max_conns", 10)
	v.SetDefault("email_smtp_host", "localhost")
	v.SetDefault("email_smtp_port", 1025)
	v.SetDefault("password_cost", 12)
	v.SetDefault("log_dev", false)
	v.SetDefault("log_level", "")
	v.SetDefault("log_file", "")
	v.SetDefault("database_url", "")
	v.SetDefault("email_smtp_user", "")
	v.SetDefault("email_smtp_password", "")
}

// Load builds a Config from environment variables. Keys are the upper-case
// form of the viper keys, e.g. DATABASE_URL or EMAIL_SMTP_HOST.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)
	// implicit TLS follows the environment unless EMAIL_SMTP_SECURE says otherwise
	v.SetDefault("email_smtp_secure", v.GetString("node_env") == "production")

	cfg := Config{
		HTTPAddr:        v.GetString("http_addr"),
		WebserverOrigin: strings.TrimRight(v.GetString("webserver_origin"), "/"),
		Production:      v.GetString("node_env") == "production",
		DatabaseURL:     v.GetString("database_url"),
		DatabaseName:    v.GetString("postgres_db"),
		DBMaxConns:      v.GetInt("db_max_conns"),
		SMTPHost:        v.GetString("email_smtp_host"),
		SMTPPort:        v.GetInt("email_smtp_port"),
		SMTPUser:        v.GetString("email_smtp_user"),
		SMTPPassword:    v.GetString("email_smtp_password"),
		SMTPSecure:      v.GetBool("email_smtp_secure"),
		PasswordCost:    v.GetInt("password_cost"),
		LogLevel:        v.GetString("log_level"),
		LogDev:          v.GetBool("log_dev"),
		LogFile:         v.GetString("log_file"),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.PasswordCost < 4 || cfg.PasswordCost > 31 {
		return cfg, fmt.Errorf("config: PASSWORD_COST %d out of range [4, 31]", cfg.PasswordCost)
	}
	return cfg, nil
}
