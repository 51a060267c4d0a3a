// Package configは環境変数からアプリケーション設定を読み込みます。
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config はアプリケーション全体の設定を保持します。
// すべてのフィールドは環境変数から設定されます。
type Config struct {
	AppPort int `env:"APP_PORT" envDefault:"8080"`

	// データベース (MySQL)
	DBUser string `env:"DB_USER,required"`
	DBPass string `env:"DB_PASS,required"`
	DBHost string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort string `env:"DB_PORT" envDefault:"3306"`
	DBName string `env:"DB_NAME,required"`

	// JWTの署名シークレット。未設定または空の場合は起動時にエラーになります。
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// CORSで許可するオリジン
	AllowOrigin string `env:"ALLOW_ORIGIN" envDefault:"http://localhost:3000"`
}

// DSN はMySQL接続文字列 (DSN) を構築します。
// 例: user:pass@tcp(db:3306)/dbname?parseTime=true
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

// Load は環境変数を解析してConfigを返します。
// 必須の変数が欠けている場合はエラーを返します。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
