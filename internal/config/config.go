// Package config loads server options from flags, the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/danek0100/External-Observer/internal/ownership"
)

// EnvPrefix prefixes the environment variable of every flag: --jwt-key <-> OBSERVER_JWT_KEY.
const EnvPrefix = "OBSERVER_"

// Options is the complete server configuration.
type Options struct {
	HTTPAddr string
	GRPCAddr string // empty disables the health endpoint
	DSN      string

	JWTKey    string
	AccessTTL time.Duration

	RedisAddr string // empty disables the document cache
	CacheTTL  time.Duration

	Ownership     string
	MaxPeriodDays int

	RevisionKeep     int
	MaintenanceEvery time.Duration

	CORSOrigins []string
	Dev         bool
	EnvFile     string
}

// Bind registers every option on fs with its default and returns the target struct.
func Bind(flags *pflag.FlagSet) *Options {
	o := &Options{}
	flags.StringVar(&o.HTTPAddr, "http-addr", ":8080", "HTTP listen address")
	flags.StringVar(&o.GRPCAddr, "grpc-addr", ":9090", "gRPC health listen address (empty disables)")
	flags.StringVar(&o.DSN, "dsn", "", "PostgreSQL DSN")
	flags.StringVar(&o.JWTKey, "jwt-key", "", "HS256 signing key (required)")
	flags.DurationVar(&o.AccessTTL, "access-ttl", 24*time.Hour, "access token TTL")
	flags.StringVar(&o.RedisAddr, "redis-addr", "", "Redis address for the document cache (empty disables)")
	flags.DurationVar(&o.CacheTTL, "cache-ttl", 10*time.Minute, "document cache TTL")
	flags.StringVar(&o.Ownership, "ownership", ownership.Conceal.String(), "signal for foreign resources: conceal|forbid")
	flags.IntVar(&o.MaxPeriodDays, "max-period-days", 366, "longest allowed habit period in days")
	flags.IntVar(&o.RevisionKeep, "revision-keep", 50, "archived revisions kept per document")
	flags.DurationVar(&o.MaintenanceEvery, "maintenance-every", time.Hour, "maintenance job interval")
	flags.StringSliceVar(&o.CORSOrigins, "cors-origins", []string{"http://localhost:3000"}, "allowed CORS origins")
	flags.BoolVar(&o.Dev, "dev", false, "development logging and gRPC reflection")
	flags.StringVar(&o.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	return o
}

// EnvName returns the environment variable consulted for flag name.
func EnvName(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// Load resolves options after flags have been parsed and validates the result.
func Load(flags *pflag.FlagSet, o *Options) error {
	if err := Resolve(flags, o); err != nil {
		return err
	}
	return o.Validate()
}

// Resolve fills o without validating it. Precedence, lowest first:
// flag defaults, the env file, the process environment, explicitly set flags.
// A missing env file is not an error.
func Resolve(flags *pflag.FlagSet, o *Options) error {
	if o.EnvFile != "" {
		// godotenv.Load never overrides variables already present in the environment
		if err := godotenv.Load(o.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", o.EnvFile, err)
		}
	}
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}
		v, ok := os.LookupEnv(EnvName(f.Name))
		if !ok {
			return
		}
		if serr := f.Value.Set(v); serr != nil {
			err = fmt.Errorf("%s: %w", EnvName(f.Name), serr)
		}
	})
	return err
}

// OwnershipMode parses the configured ownership signal.
func (o *Options) OwnershipMode() (ownership.Mode, error) {
	return ownership.ParseMode(o.Ownership)
}

// Validate rejects incomplete or inconsistent options.
func (o *Options) Validate() error {
	var problems []error
	if o.DSN == "" {
		problems = append(problems, errors.New("dsn is required"))
	}
	if o.JWTKey == "" {
		problems = append(problems, errors.New("jwt-key is required"))
	}
	if o.HTTPAddr == "" {
		problems = append(problems, errors.New("http-addr is required"))
	}
	if _, err := o.OwnershipMode(); err != nil {
		problems = append(problems, err)
	}
	if o.AccessTTL <= 0 {
		problems = append(problems, errors.New("access-ttl must be positive"))
	}
	if o.CacheTTL <= 0 {
		problems = append(problems, errors.New("cache-ttl must be positive"))
	}
	if o.MaxPeriodDays <= 0 {
		problems = append(problems, errors.New("max-period-days must be positive"))
	}
	if o.RevisionKeep <= 0 {
		problems = append(problems, errors.New("revision-keep must be positive"))
	}
	if o.MaintenanceEvery <= 0 {
		problems = append(problems, errors.New("maintenance-every must be positive"))
	}
	return errors.Join(problems...)
}
