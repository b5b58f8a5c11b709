package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

type config struct {
	Production         bool          `env:"PRODUCTION" envDefault:"false"`
	Port               string        `env:"PORT" envDefault:"80"`
	PostgresUrl        string        `env:"POSTGRES_URL,required"`
	RedisUrl           string        `env:"REDIS_URL" envDefault:"redis:6379"`
	JwtTTL             time.Duration `env:"TOKEN_TTL" envDefault:"20m"`
	Secret             string        `env:"SECRET,required"`
	Password           string        `env:"PASSWORD,required"`
	SessionTTl         time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionTokenLength int           `env:"SESSION_TOKEN_LENGTH" envDefault:"32"`
	ReferenceTimezone  string        `env:"REFERENCE_TIMEZONE" envDefault:"Asia/Singapore"`
	UseProcessTimezone bool          `env:"USE_PROCESS_TIMEZONE" envDefault:"false"`
	DevicePushToken    string        `env:"DEVICE_PUSH_TOKEN" envDefault:""`
	SpeechCommand      string        `env:"SPEECH_COMMAND" envDefault:"espeak-ng"`
	SpeechLanguage     string        `env:"SPEECH_LANGUAGE" envDefault:"zh-TW"`
	AlarmSweepPeriod   time.Duration `env:"ALARM_SWEEP_PERIOD" envDefault:"1s"`
	DeliveryLogTTL     time.Duration `env:"DELIVERY_LOG_TTL" envDefault:"48h"`
	DigestTime         string        `env:"DIGEST_TIME" envDefault:""`
}

var conf config

func init() {
	if err := env.Parse(&conf); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
}

func Production() bool {
	return conf.Production
}

func Port() string {
	return conf.Port
}

func PostgresURL() string {
	return conf.PostgresUrl
}

func RedisURL() string {
	return conf.RedisUrl
}

func JwtTTL() time.Duration {
	return conf.JwtTTL
}

func Secret() string {
	return conf.Secret
}

func Password() string {
	return conf.Password
}

func SessionTTl() time.Duration {
	return conf.SessionTTl
}

func SessionTokenLength() int {
	return conf.SessionTokenLength
}

// ReferenceTimezone is the fixed zone event date/times are interpreted in.
func ReferenceTimezone() string {
	return conf.ReferenceTimezone
}

// UseProcessTimezone switches reminder computation to the host's zone
// instead of the fixed reference zone.
func UseProcessTimezone() bool {
	return conf.UseProcessTimezone
}

func DevicePushToken() string {
	return conf.DevicePushToken
}

func SpeechCommand() string {
	return conf.SpeechCommand
}

func SpeechLanguage() string {
	return conf.SpeechLanguage
}

func AlarmSweepPeriod() time.Duration {
	return conf.AlarmSweepPeriod
}

func DeliveryLogTTL() time.Duration {
	return conf.DeliveryLogTTL
}

func DigestTime() string {
	return conf.DigestTime
}
