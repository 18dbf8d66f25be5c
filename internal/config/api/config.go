package api_config

import (
	"time"

	"github.com/NordCoder/Postboard/internal/auth"
	"github.com/NordCoder/Postboard/internal/obs"
	"github.com/NordCoder/Postboard/internal/outbox"
	kafkax "github.com/NordCoder/Postboard/internal/repository/kafka"
	pg "github.com/NordCoder/Postboard/internal/repository/postgres"
	redisx "github.com/NordCoder/Postboard/internal/repository/redis"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

type Auth struct {
	AccessSecret    string        `mapstructure:"access_secret"`
	RefreshSecret   string        `mapstructure:"refresh_secret"`
	AccessTTL       time.Duration `mapstructure:"access_ttl"`
	RefreshTTL      time.Duration `mapstructure:"refresh_ttl"`
	Issuer          string        `mapstructure:"issuer"`
	APIKey          string        `mapstructure:"api_key"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
}

func (a *Auth) AsTokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		AccessSecret:  []byte(a.AccessSecret),
		RefreshSecret: []byte(a.RefreshSecret),
		AccessTTL:     a.AccessTTL,
		RefreshTTL:    a.RefreshTTL,
		Issuer:        a.Issuer,
	}
}

type RateLimit struct {
	Enable bool          `mapstructure:"enable"`
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type Config struct {
	App       App                   `mapstructure:"app"`
	Server    Server                `mapstructure:"server"`
	DB        pg.Config             `mapstructure:"db"`
	OTEL      OTEL                  `mapstructure:"otel"`
	Log       Log                   `mapstructure:"log"`
	Auth      Auth                  `mapstructure:"auth"`
	RateLimit RateLimit             `mapstructure:"ratelimit"`
	Redis     redisx.Config         `mapstructure:"redis"`
	Kafka     kafkax.ProducerConfig `mapstructure:"kafka"`
	Outbox    outbox.Config         `mapstructure:"outbox"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
