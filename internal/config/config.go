package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	JWTExpiryHours  int           `mapstructure:"JWT_EXPIRATION_HOURS"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`

	MinDaysDefault int    `mapstructure:"MIN_DAYS_DEFAULT"`
	MinDaysPolicy  string `mapstructure:"MIN_DAYS_POLICY"`

	S3Region       string `mapstructure:"S3_REGION"`
	S3Bucket       string `mapstructure:"S3_BUCKET"`
	S3Endpoint     string `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID  string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	PhotoBaseURL   string `mapstructure:"PHOTO_BASE_URL"`
	LocalUploadDir string `mapstructure:"LOCAL_UPLOAD_DIR"`
	GeocodeURL     string `mapstructure:"GEOCODE_URL"`
	GeocodeCountry string `mapstructure:"GEOCODE_COUNTRY"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("JWT_EXPIRATION_HOURS", 72)
	v.SetDefault("MIN_DAYS_DEFAULT", 30)
	v.SetDefault("MIN_DAYS_POLICY", "24=15")
	v.SetDefault("S3_REGION", "ap-south-1")
	v.SetDefault("LOCAL_UPLOAD_DIR", "uploads")
	v.SetDefault("GEOCODE_COUNTRY", "India")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
