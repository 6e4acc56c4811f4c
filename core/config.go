package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type (
	Config struct {
		AppName                   string        `mapstructure:"appname"`
		Env                       string        `mapstructure:"-"`
		Build                     string        `mapstructure:"build"`
		Debug                     bool          `mapstructure:"debug"`
		TestMode                  bool          `mapstructure:"testmode"`
		SecretKey                 string        `mapstructure:"secretkey"`
		WorkDir                   string        `mapstructure:"workdir"`
		FrontendBaseURL           string        `mapstructure:"frontendbaseurl"`
		PasswordResetTimeoutDelta time.Duration `mapstructure:"passwordresettimeoutdelta"`
		RollbarToken              string        `mapstructure:"rollbartoken"`
		SendgridApiKey            string        `mapstructure:"sendgridapikey"`

		Mail      MailConfig      `mapstructure:"mail"`
		Server    ServerConfig    `mapstructure:"server"`
		Database  DatabaseConfig  `mapstructure:"database"`
		Redis     RedisConfig     `mapstructure:"redis"`
		RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	}

	MailConfig struct {
		FromName    string `mapstructure:"fromname"`
		FromAddress string `mapstructure:"fromaddress"`
	}

	ServerConfig struct {
		Host                      string        `mapstructure:"host"`
		Address                   string        `mapstructure:"address"`
		DebugHost                 string        `mapstructure:"debughost"`
		DisableReqLogs            bool          `mapstructure:"disablereqlogs"`
		ShutdownTimeout           time.Duration `mapstructure:"shutdowntimeout"`
		JWTExpirationDelta        time.Duration `mapstructure:"jwtexpirationdelta"`
		JWTRefreshExpirationDelta time.Duration `mapstructure:"jwtrefreshexpirationdelta"`
	}

	DatabaseConfig struct {
		Driver        string        `mapstructure:"driver"` // memory | mongo | postgres
		URI           string        `mapstructure:"uri"`    // mongo only
		Engine        string        `mapstructure:"engine"`
		Name          string        `mapstructure:"name"`
		Host          string        `mapstructure:"host"`
		Port          string        `mapstructure:"port"`
		User          string        `mapstructure:"user"`
		Password      string        `mapstructure:"password"`
		AdminUser     string        `mapstructure:"adminuser"`
		AdminPassword string        `mapstructure:"adminpassword"`
		DisableTLS    bool          `mapstructure:"disabletls"`
		QueryTimeout  time.Duration `mapstructure:"querytimeout"`
	}

	RedisConfig struct {
		Addr     string `mapstructure:"addr"` // empty: in-memory rate limiting
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	}

	RateLimitConfig struct {
		AuthPerMinute int `mapstructure:"authperminute"`
	}
)

func (c DatabaseConfig) Address() string {
	if c.Port == "" {
		return c.Host
	}
	return c.Host + ":" + c.Port
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.Mail.FromName, Address: c.Mail.FromAddress}
}

// NewConfig loads the app configuration.
// Values are read from the environment (prefixed with the current ENV), after loading
// `config/.env.<env>` (relative to the work dir) when it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Campus")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k9#x2v!e@q7^pl0s&w4m(zr8)t1$yb6*nc3-hj5=ug+fd")
	v.SetDefault("workDir", getwd())
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("passwordResetTimeoutDelta", 1*time.Hour)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("mail.fromName", "Campus")
	v.SetDefault("mail.fromAddress", "noreply@localhost")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.debugHost", ":5001")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "campus")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "campus")
	v.SetDefault("database.password", "campus")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.queryTimeout", 5*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rateLimit.authPerMinute", 10)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(v.GetString("workDir"), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	conf.Env = env
	return conf
}

func getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return wd
}
