package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf holds the app-wide configuration. It is loaded once at startup from
// defaults, an optional config/.env.<env> file and environment variables.
var Conf *Config

type Config struct {
	Env      string
	Debug    bool
	TestMode bool

	AppName          string
	SecretKey        string
	FrontendBaseURL  string
	Timezone         string // default timezone for daily reports
	defaultFromEmail string
	SendgridApiKey   string
	RollbarToken     string

	Server struct {
		Host               string
		Port               string
		JWTExpirationDelta time.Duration
	}

	Database struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	Storage struct {
		Driver string // "local" | "minio"
		Root   string // local driver upload root

		MinioEndpoint  string
		MinioAccessKey string
		MinioSecretKey string
		MinioBucket    string
		MinioUseSSL    bool
	}
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

func (c *Config) DatabaseAddress() string {
	return c.Database.Host + ":" + c.Database.Port
}

func init() {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Firewatch")
	v.SetDefault("secretKey", "x#2qp7$zhnd0)-w5k&f8@+u3_c(9e!vtm4ygb6^1rjs%laoi*5")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", "8000")

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "firewatch")
	v.SetDefault("dbUser", "firewatch")
	v.SetDefault("dbPassword", "firewatch")
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("storageDriver", "local")
	v.SetDefault("storageRoot", "uploads")
	v.SetDefault("minioBucket", "firewatch")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		Timezone:         v.GetString("timezone"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
	}
	Conf.Server.Host = v.GetString("serverHost")
	Conf.Server.Port = v.GetString("serverPort")
	Conf.Server.JWTExpirationDelta = v.GetDuration("jwtExpirationDelta")

	Conf.Database.Engine = v.GetString("dbEngine")
	Conf.Database.Host = v.GetString("dbHost")
	Conf.Database.Port = v.GetString("dbPort")
	Conf.Database.Name = v.GetString("dbName")
	Conf.Database.User = v.GetString("dbUser")
	Conf.Database.Password = v.GetString("dbPassword")
	Conf.Database.AdminUser = v.GetString("dbAdminUser")
	Conf.Database.AdminPassword = v.GetString("dbAdminPassword")
	Conf.Database.DisableTLS = v.GetBool("dbDisableTLS")

	Conf.Storage.Driver = v.GetString("storageDriver")
	Conf.Storage.Root = v.GetString("storageRoot")
	Conf.Storage.MinioEndpoint = v.GetString("minioEndpoint")
	Conf.Storage.MinioAccessKey = v.GetString("minioAccessKey")
	Conf.Storage.MinioSecretKey = v.GetString("minioSecretKey")
	Conf.Storage.MinioBucket = v.GetString("minioBucket")
	Conf.Storage.MinioUseSSL = v.GetBool("minioUseSSL")

	if _, err := time.LoadLocation(Conf.Timezone); err != nil {
		log.Fatal(fmt.Errorf("config: invalid timezone %q: %w", Conf.Timezone, err))
	}
}
