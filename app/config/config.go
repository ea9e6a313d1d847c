package config

import (
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/viper"
)

type Config struct {
	DB    *sql.DB
	Fees  FeeConfig
	Cache SnapshotConfig
}

type FeeConfig struct {
	CacheTTL      time.Duration
	SweepInterval time.Duration
}

type SnapshotConfig struct {
	TTL          time.Duration
	Cron         string
	FreezeWindow time.Duration
}

var AppConfig *Config

// Conf holds every setting, read from the environment after an optional .env.
var Conf *viper.Viper

func init() {
	Conf = New()
}

// New builds a viper instance with the service defaults bound to the environment.
func New() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("port", "8080")
	v.SetDefault("db_url", "")
	v.SetDefault("local_db", false)
	v.SetDefault("redis_addr", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("fee_cache_ttl", 30*time.Minute)
	v.SetDefault("fee_cache_sweep_interval", 10*time.Minute)
	v.SetDefault("snapshot_cache_ttl", 24*time.Hour)
	v.SetDefault("snapshot_cron", "5 20 * * *")
	v.SetDefault("snapshot_freeze_window", 14*24*time.Hour)
	v.SetDefault("timezone", "Africa/Kampala")
	v.AutomaticEnv()
	return v
}

// LoadEnv loads .env if it exists (ignored if it does not).
func LoadEnv() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatalf("config.godotenv(.env): %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(.env): %v", err)
	}
}

// Fee returns the fee cache tuning.
func Fee() FeeConfig {
	return FeeConfig{
		CacheTTL:      Conf.GetDuration("fee_cache_ttl"),
		SweepInterval: Conf.GetDuration("fee_cache_sweep_interval"),
	}
}

// Snapshot returns the snapshot cache and freeze schedule settings.
func Snapshot() SnapshotConfig {
	return SnapshotConfig{
		TTL:          Conf.GetDuration("snapshot_cache_ttl"),
		Cron:         Conf.GetString("snapshot_cron"),
		FreezeWindow: Conf.GetDuration("snapshot_freeze_window"),
	}
}

func dsn() string {
	if Conf.GetBool("local_db") {
		log.Println("Using local PostgreSQL database")
		return "host=localhost port=5432 user=postgres dbname=trinity sslmode=disable"
	}
	return Conf.GetString("db_url")
}

func InitDB() {
	psqlInfo := dsn()
	if psqlInfo == "" {
		log.Fatal("DB_URL is not set; export DB_URL or LOCAL_DB=true")
	}

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		log.Fatal("Failed to open database connection:", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	log.Println("Testing database connection...")
	if err = db.Ping(); err != nil {
		log.Printf("Database connection failed: %v", err)
		log.Fatal("Cannot establish database connection")
	}

	AppConfig = &Config{
		DB:    db,
		Fees:  Fee(),
		Cache: Snapshot(),
	}
	log.Println("Database connected successfully")
}

func GetDB() *sql.DB {
	return AppConfig.DB
}
