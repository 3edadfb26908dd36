package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/OliveiraNt/maned-mirror/cmd"
	"github.com/OliveiraNt/maned-mirror/internal/config"
	"github.com/OliveiraNt/maned-mirror/internal/infrastructure/repository"
	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

const appName = "maned-mirror"

func findConfigPath() string {
	names := []string{"config.yml", "config.yaml"}
	candidates := []string{}

	for _, n := range names {
		candidates = append(candidates, "./"+n)
	}

	home, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			for _, n := range names {
				candidates = append(candidates, filepath.Join(appdata, appName, n))
			}
		}
		if pd := os.Getenv("PROGRAMDATA"); pd != "" {
			for _, n := range names {
				candidates = append(candidates, filepath.Join(pd, appName, n))
			}
		}
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			for _, n := range names {
				candidates = append(candidates, filepath.Join(xdg, appName, n))
			}
		}
		if home != "" {
			for _, n := range names {
				candidates = append(candidates, filepath.Join(home, ".config", appName, n))
			}
		}
		for _, n := range names {
			candidates = append(candidates, filepath.Join("/etc", appName, n))
		}
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// no file anywhere: write a template with the defaults so brokers can be filled in
	createPath := "./config.yml"
	if err := config.WriteConfig(createPath, config.Default()); err != nil {
		utils.Logger.Warn("failed to write default config", "path", createPath, "err", err)
	} else {
		utils.Logger.Info("default config written", "path", createPath)
	}
	return createPath
}

func main() {
	_ = godotenv.Load()
	utils.InitLogger()
	config.InitI18n()

	configPath := os.Getenv("MANED_MIRROR_CONFIG")
	if configPath == "" {
		configPath = findConfigPath()
	}

	repo := repository.NewConfigRepository(configPath)
	if _, err := repo.LoadFromFile(); err != nil {
		if errors.Is(err, config.ErrNoSourceBrokers) || errors.Is(err, config.ErrNoDestinationBrokers) {
			utils.Logger.Error("set the brokers in the config file or MANED_MIRROR_*_BROKERS", "path", configPath)
		}
		utils.Logger.Fatal("failed to load config file", "path", configPath, "err", err)
	}
	utils.Logger.Info("configuration loaded", "path", configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.StartReplication(ctx, repo, uuid.NewString()); err != nil {
		utils.Logger.Fatal("replication terminated", "err", err)
	}
}
