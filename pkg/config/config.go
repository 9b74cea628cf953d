package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	Store  StoreConfig
	DB     DBConfig
	Redis  RedisConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	SMTP   SMTPConfig
	Alerts AlertConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env       string // development, staging, production
	Name      string
	LogLevel  string
	StoreName string // encabezado del comprobante PDF
}

// StoreConfig selecciona el backend de persistencia.
type StoreConfig struct {
	Driver      string // postgres | memory
	AutoMigrate bool
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// RedisConfig conexión opcional a Redis (solo si ALERT_KEY_STORE=redis).
type RedisConfig struct {
	URL string
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host           string
	Port           int
	LoginRatePerS  float64
	LoginRateBurst int
	SwaggerFile    string
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SMTPConfig transporte de correo. Sin Host/User/Password los correos solo se registran en el log.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled indica si hay credenciales suficientes para enviar correo real.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

// AlertConfig parámetros del gate de notificaciones, el despachador y los barridos.
type AlertConfig struct {
	KeyStore         string // memory | redis | postgres
	Workers          int
	QueueSize        int
	StartupDelay     time.Duration
	SweepInterval    time.Duration
	ExpiryWindowDays int
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, SMTP_HOST, ALERT_WORKERS, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:       getString(v, "APP_ENV", "development"),
			Name:      getString(v, "APP_NAME", "retail-kpi-api"),
			LogLevel:  getString(v, "LOG_LEVEL", "info"),
			StoreName: getString(v, "STORE_NAME", "Retail POS"),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(getString(v, "STORE_DRIVER", "postgres")),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", true),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "retail_kpi"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			URL: getString(v, "REDIS_URL", "redis://localhost:6379/0"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 24*60),
			Issuer:     getString(v, "JWT_ISSUER", "retail-kpi-api"),
		},
		HTTP: HTTPConfig{
			Host:           getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:           getInt(v, "HTTP_PORT", 5000),
			LoginRatePerS:  getFloat(v, "LOGIN_RATE_PER_SECOND", 1),
			LoginRateBurst: getInt(v, "LOGIN_RATE_BURST", 5),
			SwaggerFile:    getString(v, "SWAGGER_FILE", "./docs/swagger.json"),
		},
		SMTP: SMTPConfig{
			Host:     getString(v, "SMTP_HOST", ""),
			Port:     getInt(v, "SMTP_PORT", 587),
			User:     getString(v, "SMTP_USER", ""),
			Password: getString(v, "SMTP_PASSWORD", ""),
			From:     getString(v, "SMTP_FROM", ""),
		},
		Alerts: AlertConfig{
			KeyStore:         strings.ToLower(getString(v, "ALERT_KEY_STORE", "memory")),
			Workers:          getInt(v, "ALERT_WORKERS", 4),
			QueueSize:        getInt(v, "ALERT_QUEUE_SIZE", 256),
			StartupDelay:     getDuration(v, "ALERT_STARTUP_DELAY", 2*time.Second),
			SweepInterval:    getDuration(v, "ALERT_SWEEP_INTERVAL", time.Hour),
			ExpiryWindowDays: getInt(v, "EXPIRY_WINDOW_DAYS", 10),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER inválido: %q (postgres | memory)", c.Store.Driver)
	}
	switch c.Alerts.KeyStore {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("ALERT_KEY_STORE inválido: %q (memory | redis | postgres)", c.Alerts.KeyStore)
	}
	if c.Alerts.KeyStore == "postgres" && c.Store.Driver != "postgres" {
		return fmt.Errorf("ALERT_KEY_STORE=postgres requiere STORE_DRIVER=postgres")
	}
	if c.Alerts.Workers <= 0 {
		c.Alerts.Workers = 1
	}
	if c.Alerts.QueueSize <= 0 {
		c.Alerts.QueueSize = 1
	}
	if c.SMTP.From == "" {
		c.SMTP.From = c.SMTP.User
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if v.IsSet(key) {
		f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
		if err != nil {
			return def
		}
		return f
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}

// getDuration acepta formato Go ("90s", "1h") o segundos enteros.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
