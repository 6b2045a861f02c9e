package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	App       *App
	HTTP      *HTTP
	Backend   *Backend
	Database  *Database
	AMQP      *AMQP
	Tracking  *Tracking
	Simulator *Simulator
	Auth      *Auth
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

const (
	TransportSimulator = "simulator"
	TransportSSE       = "sse"
	TransportAMQP      = "amqp"
)

type App struct {
	LogLevel string `env:"LOG_LEVEL"`
	Mode     string `env:"APP_MODE"`
	EnvFile  string `env:"ENV_FILE"`
}

// HTTP is the listen address of the mock backend.
type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

// Backend is where the tracking client finds the order API and the event stream.
type Backend struct {
	HostString string `env:"BACKEND_ADDRESS"`
	Token      string `env:"BACKEND_TOKEN"`
	CustomerID string `env:"CUSTOMER_ID"`
}

type Database struct {
	DSN string `env:"DATABASE_URI"`
}

type AMQP struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE"`
}

type Tracking struct {
	Transport      string        `env:"TRACKING_TRANSPORT"`
	OrderID        string        `env:"TRACKING_ORDER_ID"`
	ETAGraceWindow time.Duration `env:"TRACKING_ETA_GRACE"`
	ReconnectDelay time.Duration `env:"TRACKING_RECONNECT_DELAY"`
	CancelAfter    time.Duration `env:"TRACKING_CANCEL_AFTER"`
}

type Simulator struct {
	Interval      time.Duration `env:"SIMULATOR_INTERVAL"`
	LocationPings int           `env:"SIMULATOR_LOCATION_PINGS"`
}

type Auth struct {
	TokenKey string        `env:"TOKEN_KEY"`
	TokenTTL time.Duration `env:"TOKEN_TTL"`
}

func NewConfig() (*Config, error) {
	return Parse(os.Args[0], os.Args[1:])
}

// Parse reads flags from args, then lets the environment (and an optional .env file) override them.
func Parse(name string, args []string) (*Config, error) {
	var app App
	var http HTTP
	var backend Backend
	var db Database
	var amqp AMQP
	var tracking Tracking
	var simulator Simulator
	var auth Auth

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.StringVar(&app.LogLevel, "l", `error`, "Log level")
	flags.StringVar(&app.Mode, "m", `DEV`, "PROD / DEV")
	flags.StringVar(&app.EnvFile, "env", `.env`, "Optional env file")
	flags.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	flags.StringVar(&backend.HostString, "b", `localhost:8080`, "Order backend address")
	flags.StringVar(&backend.Token, "token", "", "Bearer token for the order backend")
	flags.StringVar(&backend.CustomerID, "customer", "", "Customer id used to request a token")
	flags.StringVar(&db.DSN, "d", "", "Database string")
	flags.StringVar(&amqp.URL, "q", "", "AMQP broker url")
	flags.StringVar(&amqp.Exchange, "exchange", `order.tracking`, "AMQP topic exchange")
	flags.StringVar(&tracking.Transport, "t", TransportSSE, "Event transport: simulator / sse / amqp")
	flags.StringVar(&tracking.OrderID, "order", "", "Order id to track")
	flags.DurationVar(&tracking.ETAGraceWindow, "eta-grace", 5*time.Minute, "Tolerance for earlier ETA updates")
	flags.DurationVar(&tracking.ReconnectDelay, "reconnect", 2*time.Second, "Initial stream reconnect delay")
	flags.DurationVar(&tracking.CancelAfter, "cancel-after", 0, "Cancel the tracked order after this delay")
	flags.DurationVar(&simulator.Interval, "sim-interval", 3*time.Second, "Simulated event interval")
	flags.IntVar(&simulator.LocationPings, "sim-pings", 5, "Simulated courier location pings")
	flags.StringVar(&auth.TokenKey, "token-key", "", "Hex encoded token key, random when empty")
	flags.DurationVar(&auth.TokenTTL, "token-ttl", 24*time.Hour, "Token lifetime")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	if err := env.Parse(&app); err != nil {
		return nil, fmt.Errorf("error parsing app config: %w", err)
	}
	if err := loadEnvFile(app.EnvFile); err != nil {
		return nil, err
	}

	groups := []struct {
		name string
		v    any
	}{
		{"app", &app},
		{"http", &http},
		{"backend", &backend},
		{"database", &db},
		{"amqp", &amqp},
		{"tracking", &tracking},
		{"simulator", &simulator},
		{"auth", &auth},
	}
	for _, g := range groups {
		if err := env.Parse(g.v); err != nil {
			return nil, fmt.Errorf("error parsing %s config: %w", g.name, err)
		}
	}

	switch tracking.Transport {
	case TransportSimulator, TransportSSE, TransportAMQP:
	default:
		return nil, fmt.Errorf("unknown tracking transport %q", tracking.Transport)
	}
	if tracking.Transport == TransportAMQP && amqp.URL == "" {
		return nil, errors.New("amqp transport needs an AMQP url")
	}

	config := Config{
		App:       &app,
		HTTP:      &http,
		Backend:   &backend,
		Database:  &db,
		AMQP:      &amqp,
		Tracking:  &tracking,
		Simulator: &simulator,
		Auth:      &auth,
	}

	return &config, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading env file %s: %w", path, err)
	}
	return nil
}
