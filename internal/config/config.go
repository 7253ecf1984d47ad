package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=core_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultSortCode = "40-00-01"
const defaultCurrency = "GBP"
const defaultLockWait = 5 * time.Second
const defaultReferenceAttempts = 50

type Config struct {
	DatabaseDSN       string
	MigrationsDir     string
	SortCode          string
	Currency          string
	LockWait          time.Duration
	ReferenceAttempts int
	EventWebhookURL   string
}

func Load() (Config, error) {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load()

	conn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if conn == "" {
		conn = defaultConnectionString
	}

	sortCode := strings.TrimSpace(os.Getenv("BANK_SORT_CODE"))
	if sortCode == "" {
		sortCode = defaultSortCode
	}

	currency := strings.TrimSpace(os.Getenv("BANK_CURRENCY"))
	if currency == "" {
		currency = defaultCurrency
	}

	lockWait := defaultLockWait
	if raw := strings.TrimSpace(os.Getenv("LOCK_WAIT_MS")); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			lockWait = time.Duration(ms) * time.Millisecond
		}
	}

	referenceAttempts := defaultReferenceAttempts
	if raw := strings.TrimSpace(os.Getenv("REFERENCE_ATTEMPTS")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			referenceAttempts = n
		}
	}

	return Config{
		DatabaseDSN:       normalizeConnectionString(conn),
		MigrationsDir:     "migrations",
		SortCode:          sortCode,
		Currency:          strings.ToUpper(currency),
		LockWait:          lockWait,
		ReferenceAttempts: referenceAttempts,
		EventWebhookURL:   strings.TrimSpace(os.Getenv("EVENT_WEBHOOK_URL")),
	}, nil
}

func normalizeConnectionString(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
