package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string   `env:"PORT" envDefault:"8000"`
		ReadTimeout     int      `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int      `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int      `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int      `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
		AllowedOrigins  []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	} `envPrefix:"SERVER_"`
	Database struct {
		Driver             string `env:"DRIVER" envDefault:"postgres"` // postgres or memory
		DSN                string `env:"DSN"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialManager struct {
		Username string `env:"USERNAME" envDefault:"manager"`
		Password string `env:"PASSWORD,required,notEmpty"`
		Email    string `env:"EMAIL"`
	} `envPrefix:"INITIAL_MANAGER_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"7200"` // 2 hours
		Secret     string `env:"SECRET,required,notEmpty"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password    string `env:"PASSWORD" envDefault:"password"`
			EmailDomain string `env:"EMAIL_DOMAIN"`
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"` // empty disables audit and mail publishing
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
		AuditQueue     string `env:"AUDIT_QUEUE" envDefault:"audit_queue"`
		MailQueue      string `env:"MAIL_QUEUE" envDefault:"email_queue"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	Hub struct {
		SendBuffer   int `env:"SEND_BUFFER" envDefault:"256"`
		SendTimeout  int `env:"SEND_TIMEOUT_MS" envDefault:"250"`
		PingInterval int `env:"PING_INTERVAL" envDefault:"30"`
		PongWait     int `env:"PONG_WAIT" envDefault:"60"`
		WriteWait    int `env:"WRITE_WAIT" envDefault:"10"`
	} `envPrefix:"HUB_"`
	AuditLogs struct {
		Limit int `env:"LIMIT" envDefault:"100"`
	} `envPrefix:"AUDIT_LOGS_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// only the first error keeps the log readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "memory" {
		return nil, errors.New("DATABASE_DRIVER must be postgres or memory")
	}
	if cfg.Database.Driver == "postgres" && cfg.Database.DSN == "" {
		return nil, errors.New("DATABASE_DSN is required for the postgres driver")
	}

	return cfg, nil
}
