// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	SPATemplatePath         string `yaml:"spa_template_path"`
	BookCacheSize           int    `yaml:"book_cache_size" env-default:"64"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	ObjectStorage           `yaml:"object_storage"`
	RabbitMQ                `yaml:"rabbitmq"`
	RateLimit               `yaml:"rate_limit"`
	Exchange                `yaml:"exchange"`
	CORS                    `yaml:"cors"`

	Admin AdminAccount `yaml:"admin"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// ObjectStorage настройки S3-совместимого хранилища для оригиналов книг и пользовательских файлов
type ObjectStorage struct {
	S3BaseEndpoint string `yaml:"s3_base_endpoint"`
	S3Region       string `yaml:"s3_region" env-default:"us-east-1"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3Bucket       string `yaml:"s3_bucket" env-default:"iedcs"`
}

// RabbitMQ настройки публикации доменных событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL          string        `yaml:"url"`
	ExchangeName string        `yaml:"exchange" env-default:"iedcs.events"`
	Retries      int           `yaml:"retries" env-default:"5"`
	Delay        time.Duration `yaml:"delay" env-default:"2s"`
}

// RateLimit ограничение частоты запросов к эндпоинтам аутентификации
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// Exchange настройки обмена rd1/rd2
type Exchange struct {
	TTL time.Duration `yaml:"ttl" env-default:"5m"`
}

// CORS разрешённые источники для SPA. Пустой список запрещает кросс-доменные запросы.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
}

// AdminAccount учетная запись администратора, создаваемая при старте
type AdminAccount struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL" env-required:"true"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD" env-required:"true"`
}

// Load читает конфиг из файла по указанному пути.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("%s: file %s: %w", op, configPath, err)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига по пути из переменной окружения CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"ObjectStorage:\n"+
			"  Endpoint: %s\n"+
			"  Bucket: %s\n"+
			"Exchange:\n"+
			"  TTL: %s\n"+
			"Admin:\n"+
			"  Email: %s\n",
		c.Env,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.S3BaseEndpoint,
		c.S3Bucket,
		c.Exchange.TTL,
		c.Admin.Email,
	)
}
