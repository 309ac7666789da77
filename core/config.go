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

type (
	ServerConfig struct {
		Address         string
		DebugHost       string
		Host            string
		ShutdownTimeout time.Duration
		CSRF            bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	SessionConfig struct {
		CookieName string
		MaxAge     time.Duration
		Secure     bool
	}

	MailConfig struct {
		Backend      string // console | sendgrid | smtp
		SMTPHost     string
		SMTPPort     int
		SMTPUser     string
		SMTPPassword string
	}

	FeedbackConfig struct {
		StaffEmail string
		Subject    string
	}

	Config struct {
		Env            string
		Build          string
		Debug          bool
		TestMode       bool
		AppName        string
		SecretKey      string
		FromEmail      string
		RollbarToken   string
		SendgridApiKey string
		Server         ServerConfig
		Database       DatabaseConfig
		Session        SessionConfig
		Mail           MailConfig
		Feedback       FeedbackConfig
	}
)

// DefaultFromEmail returns the sender address of outgoing emails.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.FromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.FromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// Address returns the database "host:port".
func (c DatabaseConfig) Address() string {
	if c.Port == "" {
		return c.Host
	}
	return c.Host + ":" + c.Port
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Yellow Submarine Daycare")
	v.SetDefault("secretKey", "l1f3-k1lls)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("fromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.csrf", true)

	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "yellowsub.db")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", false)

	v.SetDefault("session.cookieName", "yellowsub_session")
	v.SetDefault("session.maxAge", 14*24*time.Hour)
	v.SetDefault("session.secure", false)

	v.SetDefault("mail.backend", "console")
	v.SetDefault("mail.smtpHost", "smtp.gmail.com")
	v.SetDefault("mail.smtpPort", 587)
	v.SetDefault("mail.smtpUser", "")
	v.SetDefault("mail.smtpPassword", "")

	v.SetDefault("feedback.staffEmail", "staff@localhost")
	v.SetDefault("feedback.subject", "Yellow Submarine Daycare Feedback")
}

// NewConfig loads the configuration of the current environment.
// ENV selects DEV (default), TEST, QA or PROD; values are read from the environment,
// prefixed with the env name (e.g. PROD_DATABASE_HOST), after loading config/.env.<env> if present.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("server.csrf", false)
	case "QA", "PROD":
		v.SetDefault("debug", false)
		v.SetDefault("session.secure", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
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
		log.Fatalf("config.Unmarshal(): %v", err)
	}
	conf.Env = env
	return conf
}
