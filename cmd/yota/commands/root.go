package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"yota-selfcare/internal/components/telemetry"
	"yota-selfcare/internal/scrapers/yota"
	"yota-selfcare/internal/session"
	"yota-selfcare/lib/configutil"
	"yota-selfcare/lib/serviceutil"

	"github.com/spf13/cobra"
)

type Config struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	// ICCID of the product `set` works on when --product is not passed.
	Product string `json:"product"`
}

var (
	configPath string
	flagConfig Config
	verbose    bool
	dumpHttp   string

	otelProviders telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:   "yota",
	Short: "yota manages the account of a Yota subscriber.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)

		providers, err := telemetry.SetupFromEnv(cmd.Context(), "yota")
		if err != nil {
			slog.Warn("failed to setup opentelemetry", "err", err)
			return
		}
		otelProviders = providers
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := otelProviders.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown opentelemetry", "err", err)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Sets a custom config file location.")
	flags.StringVarP(&flagConfig.Name, "name", "l", "", "Sets the name to login, taken from the config file if it isn't passed.")
	flags.StringVarP(&flagConfig.Password, "password", "p", "", "Sets the password to login, taken from the config file if it isn't passed.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enables debug logging.")
	flags.StringVar(&dumpHttp, "dump-http", "", "Writes every http exchange into this directory.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "yota", "config.json5"), nil
}

// loadConfig reads the config file and applies the command line flags on
// top of it. A missing file is only an error when its path was passed
// explicitly.
func loadConfig(path string, flags Config) (Config, error) {
	explicit := path != ""
	if !explicit {
		defaultPath, err := defaultConfigPath()
		if err != nil {
			return configutil.Merge(Config{}, flags)
		}
		path = defaultPath
	}

	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		slog.Debug("no config file found", "path", path)
		err = nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return configutil.Merge(cfg, flags)
}

// login builds a fresh session and logs into the account from `cfg`.
func login(ctx context.Context, cfg Config) (yota.Client, error) {
	if cfg.Name == "" || cfg.Password == "" {
		return yota.Client{}, fmt.Errorf("pass a config file or set --name and --password")
	}

	tel := telemetry.SlogAPI{}

	var output telemetry.InstrumentOutput
	if dumpHttp != "" {
		fsOutput, err := telemetry.NewFilesystemOutput(dumpHttp)
		if err != nil {
			return yota.Client{}, fmt.Errorf("prepare http dump directory: %w", err)
		}
		output = fsOutput
	}

	sess := session.New(session.Options{
		Transport: session.NewRestyTransport(tel, session.RestyOptions{
			BypassCloudflare: true,
			Output:           output,
		}),
		Telemetry: tel,
	})
	client, err := yota.NewClient(sess, tel, yota.ClientOptions{})
	if err != nil {
		return yota.Client{}, err
	}

	slog.Debug("logging in", "name", cfg.Name)
	err = client.Login(ctx, cfg.Name, cfg.Password)
	if err != nil {
		return yota.Client{}, err
	}
	return client, nil
}

// fetchDevices loads the config, logs in and scrapes the devices page.
func fetchDevices(ctx context.Context) (yota.Client, yota.Devices, Config) {
	cfg, err := loadConfig(configPath, flagConfig)
	if err != nil {
		fatal("failed to load config", err)
	}
	client, err := login(ctx, cfg)
	if err != nil {
		fatal("failed to login", err)
	}
	devices, err := client.Devices(ctx)
	if err != nil {
		fatal("failed to get devices", err)
	}
	return client, devices, cfg
}

func fatal(message string, err error) {
	shutdownErr := otelProviders.Shutdown(context.Background())
	if shutdownErr != nil {
		slog.Warn("failed to shutdown opentelemetry", "err", shutdownErr)
	}
	serviceutil.Fatal(message, err)
}
