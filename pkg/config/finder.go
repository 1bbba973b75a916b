package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// PathFinder определяет где искать config.yaml.
type PathFinder interface {
	FindConfigPath() string
}

// DefaultPathFinder ищет config.yaml по приоритету:
//  1. флаг -config
//  2. текущая директория
//  3. директория бинарника
type DefaultPathFinder struct {
	ConfigFlag string
}

// FindConfigPath возвращает путь к конфигу (даже если файла нет).
func (f *DefaultPathFinder) FindConfigPath() string {
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}

	cfgPath := "config.yaml"
	if _, err := os.Stat(cfgPath); err == nil {
		return resolveAbsPath(cfgPath)
	}

	if execPath, err := os.Executable(); err == nil {
		cfgPath = filepath.Join(filepath.Dir(execPath), "config.yaml")
		if _, err := os.Stat(cfgPath); err == nil {
			return cfgPath
		}
	}

	return resolveAbsPath("config.yaml")
}

// Initialize подгружает .env (если есть) и читает конфиг.
//
// Переменные из .env не перетирают уже выставленные в окружении,
// поэтому ${VAR} в config.yaml видит и то и другое.
func Initialize(finder PathFinder) (*AppConfig, string, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("failed to load .env: %w", err)
	}

	cfgPath := finder.FindConfigPath()

	cfg, err := Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

func resolveAbsPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
