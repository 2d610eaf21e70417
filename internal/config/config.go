package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Log       LogConfig
	Worker    WorkerConfig
	Mapbox    MapboxConfig
	NATS      NATSConfig
	Animation AnimationConfig
	Map       MapConfig
	Session   SessionConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	CORSOrigins string
}

type DatabaseConfig struct {
	Driver          string // pgx | sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	DirectionsCacheTTL time.Duration
	PlacesCacheTTL     time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled       bool
	ConsumerGroup string
	BatchSize     int
	MaxRetries    int
	// SimplifyTolerance - порог Douglas-Peucker в градусах для сохраняемой геометрии
	SimplifyTolerance float64
}

type MapboxConfig struct {
	AccessToken    string
	BaseURL        string
	RequestTimeout int // seconds
	RateLimit      float64
	RateBurst      int
	BreakerTimeout time.Duration
	BreakerTrips   uint32
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// AnimationConfig - параметры анимации пролёта по маршруту
type AnimationConfig struct {
	SpeedFlight float64 // km/h
	SpeedDrive  float64
	SpeedTrain  float64
	SpeedWalk   float64

	FlightRevealDuration time.Duration
	GroundRevealDuration time.Duration
	SettleDelay          time.Duration
	ArrivalDelay         time.Duration
	CameraDuration       time.Duration
	MaxFrameDelta        time.Duration
	FPS                  int

	CurvatureFactor   float64
	CurvatureCap      float64 // degrees
	FlightSteps       int
	AltitudePerDegree float64 // meters per planar degree
	MaxAltitude       float64 // meters
	GroundAltitude    float64 // meters, drive/train offset

	ViewportWidth     int
	ViewportHeight    int
	Padding           int
	FollowCamera      bool
	FollowThresholdKm float64
}

type MapConfig struct {
	Style     string
	Terrain   bool
	Fog       bool
	Globe     bool
	Buildings bool
}

type SessionConfig struct {
	MaxActive int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("API_ENV", "development")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")

	v.SetDefault("DB_DRIVER", "pgx")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SQLITE_PATH", "routes.db")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)

	v.SetDefault("DIRECTIONS_CACHE_TTL", 86400)
	v.SetDefault("PLACES_CACHE_TTL", 3600)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("WORKER_CONSUMER_GROUP", "route-path-workers")
	v.SetDefault("WORKER_BATCH_SIZE", 10)
	v.SetDefault("WORKER_MAX_RETRIES", 3)
	v.SetDefault("WORKER_SIMPLIFY_TOLERANCE", 0.0001)

	v.SetDefault("MAPBOX_BASE_URL", "https://api.mapbox.com")
	v.SetDefault("MAPBOX_REQUEST_TIMEOUT", 10)
	v.SetDefault("MAPBOX_RATE_LIMIT", 10)
	v.SetDefault("MAPBOX_RATE_BURST", 5)
	v.SetDefault("MAPBOX_BREAKER_TIMEOUT", 60)
	v.SetDefault("MAPBOX_BREAKER_TRIPS", 5)

	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("NATS_SUBJECT_PREFIX", "flythrough")

	v.SetDefault("ANIMATION_SPEED_FLIGHT", 800)
	v.SetDefault("ANIMATION_SPEED_DRIVE", 80)
	v.SetDefault("ANIMATION_SPEED_TRAIN", 120)
	v.SetDefault("ANIMATION_SPEED_WALK", 5)
	v.SetDefault("ANIMATION_FLIGHT_REVEAL_MS", 8000)
	v.SetDefault("ANIMATION_GROUND_REVEAL_MS", 5500)
	v.SetDefault("ANIMATION_SETTLE_DELAY_MS", 1500)
	v.SetDefault("ANIMATION_ARRIVAL_DELAY_MS", 800)
	v.SetDefault("ANIMATION_CAMERA_DURATION_MS", 1200)
	v.SetDefault("ANIMATION_MAX_FRAME_DELTA_MS", 100)
	v.SetDefault("ANIMATION_FPS", 60)
	v.SetDefault("ANIMATION_CURVATURE_FACTOR", 0.18)
	v.SetDefault("ANIMATION_CURVATURE_CAP", 18)
	v.SetDefault("ANIMATION_FLIGHT_STEPS", 150)
	v.SetDefault("ANIMATION_ALTITUDE_PER_DEGREE", 20000)
	v.SetDefault("ANIMATION_MAX_ALTITUDE", 400000)
	v.SetDefault("ANIMATION_GROUND_ALTITUDE", 50)
	v.SetDefault("ANIMATION_VIEWPORT_WIDTH", 1280)
	v.SetDefault("ANIMATION_VIEWPORT_HEIGHT", 720)
	v.SetDefault("ANIMATION_PADDING", 80)
	v.SetDefault("ANIMATION_FOLLOW_CAMERA", true)
	v.SetDefault("ANIMATION_FOLLOW_THRESHOLD_KM", 5)

	v.SetDefault("MAP_STYLE", "streets")
	v.SetDefault("MAP_TERRAIN", false)
	v.SetDefault("MAP_FOG", true)
	v.SetDefault("MAP_GLOBE", true)
	v.SetDefault("MAP_BUILDINGS", false)

	v.SetDefault("SESSION_MAX_ACTIVE", 32)
}

// Load читает конфигурацию из .env (если файл есть) и переменных окружения
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom - то же, что Load, но с явным путём к env-файлу
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	sec := func(key string) time.Duration {
		return time.Duration(v.GetInt(key)) * time.Second
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("API_HOST"),
			Port:        v.GetInt("API_PORT"),
			Env:         v.GetString("API_ENV"),
			CORSOrigins: v.GetString("CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			SQLitePath:      v.GetString("DB_SQLITE_PATH"),
			MaxConns:        v.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: sec("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: sec("DB_CONN_MAX_IDLE_TIME"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			DirectionsCacheTTL: sec("DIRECTIONS_CACHE_TTL"),
			PlacesCacheTTL:     sec("PLACES_CACHE_TTL"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           v.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     v.GetString("WORKER_CONSUMER_GROUP"),
			BatchSize:         v.GetInt("WORKER_BATCH_SIZE"),
			MaxRetries:        v.GetInt("WORKER_MAX_RETRIES"),
			SimplifyTolerance: v.GetFloat64("WORKER_SIMPLIFY_TOLERANCE"),
		},
		Mapbox: MapboxConfig{
			AccessToken:    v.GetString("MAPBOX_ACCESS_TOKEN"),
			BaseURL:        strings.TrimRight(v.GetString("MAPBOX_BASE_URL"), "/"),
			RequestTimeout: v.GetInt("MAPBOX_REQUEST_TIMEOUT"),
			RateLimit:      v.GetFloat64("MAPBOX_RATE_LIMIT"),
			RateBurst:      v.GetInt("MAPBOX_RATE_BURST"),
			BreakerTimeout: sec("MAPBOX_BREAKER_TIMEOUT"),
			BreakerTrips:   v.GetUint32("MAPBOX_BREAKER_TRIPS"),
		},
		NATS: NATSConfig{
			URL:           v.GetString("NATS_URL"),
			SubjectPrefix: v.GetString("NATS_SUBJECT_PREFIX"),
		},
		Animation: animationFrom(v),
		Map: MapConfig{
			Style:     v.GetString("MAP_STYLE"),
			Terrain:   v.GetBool("MAP_TERRAIN"),
			Fog:       v.GetBool("MAP_FOG"),
			Globe:     v.GetBool("MAP_GLOBE"),
			Buildings: v.GetBool("MAP_BUILDINGS"),
		},
		Session: SessionConfig{
			MaxActive: v.GetInt("SESSION_MAX_ACTIVE"),
		},
	}

	if cfg.Database.Driver != "pgx" && cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (expected pgx or sqlite)", cfg.Database.Driver)
	}

	return cfg, nil
}

// DefaultAnimation возвращает параметры анимации по умолчанию (без чтения окружения)
func DefaultAnimation() AnimationConfig {
	v := viper.New()
	setDefaults(v)
	return animationFrom(v)
}

func animationFrom(v *viper.Viper) AnimationConfig {
	ms := func(key string) time.Duration {
		return time.Duration(v.GetInt(key)) * time.Millisecond
	}
	return AnimationConfig{
		SpeedFlight:          v.GetFloat64("ANIMATION_SPEED_FLIGHT"),
		SpeedDrive:           v.GetFloat64("ANIMATION_SPEED_DRIVE"),
		SpeedTrain:           v.GetFloat64("ANIMATION_SPEED_TRAIN"),
		SpeedWalk:            v.GetFloat64("ANIMATION_SPEED_WALK"),
		FlightRevealDuration: ms("ANIMATION_FLIGHT_REVEAL_MS"),
		GroundRevealDuration: ms("ANIMATION_GROUND_REVEAL_MS"),
		SettleDelay:          ms("ANIMATION_SETTLE_DELAY_MS"),
		ArrivalDelay:         ms("ANIMATION_ARRIVAL_DELAY_MS"),
		CameraDuration:       ms("ANIMATION_CAMERA_DURATION_MS"),
		MaxFrameDelta:        ms("ANIMATION_MAX_FRAME_DELTA_MS"),
		FPS:                  v.GetInt("ANIMATION_FPS"),
		CurvatureFactor:      v.GetFloat64("ANIMATION_CURVATURE_FACTOR"),
		CurvatureCap:         v.GetFloat64("ANIMATION_CURVATURE_CAP"),
		FlightSteps:          v.GetInt("ANIMATION_FLIGHT_STEPS"),
		AltitudePerDegree:    v.GetFloat64("ANIMATION_ALTITUDE_PER_DEGREE"),
		MaxAltitude:          v.GetFloat64("ANIMATION_MAX_ALTITUDE"),
		GroundAltitude:       v.GetFloat64("ANIMATION_GROUND_ALTITUDE"),
		ViewportWidth:        v.GetInt("ANIMATION_VIEWPORT_WIDTH"),
		ViewportHeight:       v.GetInt("ANIMATION_VIEWPORT_HEIGHT"),
		Padding:              v.GetInt("ANIMATION_PADDING"),
		FollowCamera:         v.GetBool("ANIMATION_FOLLOW_CAMERA"),
		FollowThresholdKm:    v.GetFloat64("ANIMATION_FOLLOW_THRESHOLD_KM"),
	}
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
