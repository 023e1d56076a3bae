package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/hangman/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
				convey.So(cfg.SessionTTL, convey.ShouldEqual, 2*time.Hour)
				convey.So(cfg.PresenceStaleAfter, convey.ShouldEqual, 10*time.Minute)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("HANGMAN_ADDR", ":8080")
			_ = os.Setenv("HANGMAN_QUEUE_SIZE", "500")
			_ = os.Setenv("HANGMAN_WORKER_COUNT", "3")
			_ = os.Setenv("HANGMAN_SESSION_TTL", "15m")
			_ = os.Setenv("HANGMAN_SESSION_SWEEP_INTERVAL", "30s")
			_ = os.Setenv("HANGMAN_REQUEST_TIMEOUT", "3s")
			_ = os.Setenv("HANGMAN_CHAT_SYSTEM_PROMPT", "answer in one line")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.SessionTTL, convey.ShouldEqual, 15*time.Minute)
				convey.So(cfg.SessionSweepInterval, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.RequestTimeout, convey.ShouldEqual, 3*time.Second)
				convey.So(cfg.ChatSystemPrompt, convey.ShouldEqual, "answer in one line")
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
store_driver: sqlite
store_dsn: ./data/scores.db
max_leaderboard_limit: 25
catalogue_path: ./words.yaml
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("HANGMAN_CONFIG", tmpFile)
			_ = os.Setenv("HANGMAN_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the file fills values and env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.StoreDSN, convey.ShouldEqual, "./data/scores.db")
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 25)
				convey.So(cfg.CataloguePath, convey.ShouldEqual, "./words.yaml")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config with invalid YAML", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("HANGMAN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("HANGMAN_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with invalid numeric values", func() {
			_ = os.Setenv("HANGMAN_QUEUE_SIZE", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When addr is empty", func() {
			_ = os.Setenv("HANGMAN_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
		})

		convey.Convey("When the sqlite driver has no dsn", func() {
			_ = os.Setenv("HANGMAN_STORE_DRIVER", "sqlite")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "store_dsn")
		})

		convey.Convey("When the driver is unknown", func() {
			_ = os.Setenv("HANGMAN_STORE_DRIVER", "firestore")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the log format is unknown", func() {
			cfg := config.New()
			cfg.LogFormat = "xml"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestLoadEnvFile(t *testing.T) {
	convey.Convey("Given a dotenv file", t, func() {
		clearConfigEnvVars()
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		convey.So(os.WriteFile(path, []byte("HANGMAN_ADDR=:6060\nHANGMAN_AUTH_SECRET=s3cret\n"), 0o600), convey.ShouldBeNil)
		defer clearConfigEnvVars()

		convey.Convey("When it is loaded before Load", func() {
			convey.So(config.LoadEnvFile(path), convey.ShouldBeNil)
			cfg, err := config.Load(context.Background())

			convey.Convey("Then its values reach the config", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
				convey.So(cfg.AuthSecret, convey.ShouldEqual, "s3cret")
			})
		})

		convey.Convey("When the file does not exist", func() {
			convey.So(config.LoadEnvFile(filepath.Join(dir, "missing.env")), convey.ShouldBeNil)
		})
	})
}

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"HANGMAN_CONFIG",
		"HANGMAN_ADDR",
		"HANGMAN_QUEUE_SIZE",
		"HANGMAN_WORKER_COUNT",
		"HANGMAN_SESSION_TTL",
		"HANGMAN_SESSION_SWEEP_INTERVAL",
		"HANGMAN_REQUEST_TIMEOUT",
		"HANGMAN_CHAT_SYSTEM_PROMPT",
		"HANGMAN_STORE_DRIVER",
		"HANGMAN_AUTH_SECRET",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "hangman-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
