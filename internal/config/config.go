package config

import (
	"fmt"
	"os"
	"strconv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	WCAPIURL         string // コマースプラットフォームのベースURL
	WCConsumerKey    string // REST APIのconsumer key
	WCConsumerSecret string // REST APIのconsumer secret

	CartDBPath string // カートスロットのSQLiteファイル（DATABASE_URLがあればそちら優先）
	CartPollMS int    // 他プロセスの書き込みを拾うポーリング間隔

	GoEnv string // dev/prod
	FEURL string // フロントURL（CORSで使う）
}

// Loadは環境変数
func Load() (Config, error) {
	pollMS, err := atoiDefault("CART_POLL_MS", 250)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		WCAPIURL:         os.Getenv("WC_API_URL"),
		WCConsumerKey:    os.Getenv("WC_CONSUMER_KEY"),
		WCConsumerSecret: os.Getenv("WC_CONSUMER_SECRET"),

		CartDBPath: getenv("CART_DB_PATH", "melhfa.db"),
		CartPollMS: pollMS,

		GoEnv: os.Getenv("GO_ENV"),
		FEURL: os.Getenv("FE_URL"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.WCAPIURL == "" {
		return Config{}, fmt.Errorf("WC_API_URL is required")
	}
	if cfg.WCConsumerKey == "" {
		return Config{}, fmt.Errorf("WC_CONSUMER_KEY is required")
	}
	if cfg.WCConsumerSecret == "" {
		return Config{}, fmt.Errorf("WC_CONSUMER_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.FEURL == "" {
		return Config{}, fmt.Errorf("FE_URL is required")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
