// Command gosession-probe resolves a session once against a live booking API and prints
// the resulting state and the gate outcome for a route.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/apiclient"
	"github.com/MrEthical07/goSession/config"
	"github.com/MrEthical07/goSession/credentials"
	"github.com/MrEthical07/goSession/gate"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

type options struct {
	configFile  string
	env         string
	logLevel    string
	route       string
	token       string
	userID      string
	email       string
	password    string
	admin       bool
	logout      bool
	newIdentity string
	timeout     time.Duration
}

func main() {
	var opts options
	fs := pflag.NewFlagSet("gosession-probe", pflag.ExitOnError)
	fs.StringVarP(&opts.configFile, "config", "c", "", "config file (default: ./gosession.{yaml,json,toml} if present)")
	fs.StringVar(&opts.env, "env", "development", "environment name for log output")
	fs.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn, error or off")
	fs.StringVarP(&opts.route, "route", "p", "/", "route to check against the booking route table")
	fs.StringVar(&opts.token, "token", "", "write this token to the store before resolving")
	fs.StringVar(&opts.userID, "user-id", "", "user id stored alongside --token")
	fs.StringVar(&opts.email, "email", "", "sign in with this email before resolving")
	fs.StringVar(&opts.password, "password", "", "password for --email")
	fs.BoolVar(&opts.admin, "admin", false, "sign in through the admin portal")
	fs.BoolVar(&opts.logout, "logout", false, "log out after resolving")
	fs.StringVar(&opts.newIdentity, "generate-identity", "", "write a new age identity to this path and exit")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall deadline")
	_ = fs.Parse(os.Args[1:])

	if opts.newIdentity != "" {
		id, err := credentials.GenerateIdentityFile(opts.newIdentity)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(id.Recipient().String())
		return
	}

	log := logging.New(opts.env, os.Stderr).Level(logging.ParseLevel(opts.logLevel))
	if err := run(opts, log); err != nil {
		log.Error().Err(err).Msg("probe failed")
		os.Exit(1)
	}
}

func run(opts options, log zerolog.Logger) error {
	cfg, err := config.Load(config.Options{File: opts.configFile})
	if err != nil {
		return err
	}
	// A one-shot probe never needs the schedule.
	cfg.Revalidation.Interval = 0

	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.token != "" {
		if err := store.Write(goSession.Credentials{Token: opts.token, UserID: opts.userID}); err != nil {
			return fmt.Errorf("write credentials: %w", err)
		}
	}

	client, err := apiclient.FromConfig(cfg.API, nil)
	if err != nil {
		return err
	}

	resolver, err := goSession.New().
		WithConfig(cfg).
		WithCredentialStore(store).
		WithValidator(client).
		WithCurrentUserFetcher(client).
		WithAuthenticator(client).
		WithNotificationSink(goSession.NewLogSink(log)).
		WithLogger(log).
		Build()
	if err != nil {
		return err
	}
	defer resolver.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	var state goSession.State
	switch {
	case opts.email != "" && opts.admin:
		state, err = resolver.AdminSignIn(ctx, opts.email, opts.password)
	case opts.email != "":
		state, err = resolver.SignIn(ctx, opts.email, opts.password)
	default:
		if err = resolver.Start(ctx); err == nil {
			state, err = resolver.Revalidate(ctx)
		}
	}
	if err != nil && !errors.Is(err, goSession.ErrAdminRequired) {
		return err
	}

	outcome := gate.BookingRoutes().Check(state, opts.route)
	fmt.Printf("state:   %s\n", state)
	fmt.Printf("route:   %s\n", opts.route)
	fmt.Printf("outcome: %s", outcome)
	if target := outcome.Target(cfg.Routes); target != "" {
		fmt.Printf(" -> %s", target)
	}
	fmt.Println()

	if opts.logout {
		if err := resolver.Logout(); err != nil {
			return err
		}
		fmt.Printf("state:   %s\n", resolver.State())
	}
	return nil
}

func openStore(cfg goSession.StorageConfig) (goSession.CredentialStore, func(), error) {
	switch cfg.Backend {
	case goSession.StorageRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
		store := credentials.NewRedis(client, credentials.RedisOptions{
			Prefix:  cfg.RedisPrefix,
			Timeout: cfg.RedisTimeout,
		})
		return store, func() { _ = client.Close() }, nil
	case goSession.StorageFile:
		id, err := credentials.LoadIdentity(cfg.IdentityFile)
		if err != nil {
			return nil, nil, err
		}
		store, err := credentials.NewSealedFile(cfg.FilePath, id)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return credentials.NewMemory(), func() {}, nil
	}
}
