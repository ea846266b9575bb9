package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	HTTPAddr string
	WSAddr   string

	RadiusServer string
	RadiusSecret string
	RadiusScheme string // "eap-md5", "chap", or "pap"

	NASIdentifier string
	NASIP         string
	NASIPv6       string
	SwitchMAC     string

	AuditDBPath string

	Debug bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	cfg.HTTPAddr = getEnv("PACD_HTTP_ADDR", ":8080")
	cfg.WSAddr = getEnv("PACD_WS_ADDR", ":8081")
	cfg.RadiusServer = getEnv("PACD_RADIUS_SERVER", "localhost:1812")
	cfg.RadiusSecret = getEnv("PACD_RADIUS_SECRET", "")
	cfg.RadiusScheme = getEnv("PACD_RADIUS_SCHEME", "eap-md5")
	cfg.NASIdentifier = getEnv("PACD_NAS_IDENTIFIER", "pacd")
	cfg.NASIP = getEnv("PACD_NAS_IP", "")
	cfg.NASIPv6 = getEnv("PACD_NAS_IPV6", "")
	cfg.SwitchMAC = getEnv("PACD_SWITCH_MAC", "")
	cfg.AuditDBPath = getEnv("PACD_AUDIT_DB", getDefaultAuditDBPath())
	cfg.Debug = getEnvBool("PACD_DEBUG", false)

	flag.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "Admin HTTP server address")
	flag.StringVar(&cfg.WSAddr, "ws-addr", cfg.WSAddr, "Live FSM-transition feed WebSocket address")
	flag.StringVar(&cfg.RadiusServer, "radius-server", cfg.RadiusServer, "RADIUS server host:port")
	flag.StringVar(&cfg.RadiusSecret, "radius-secret", cfg.RadiusSecret, "RADIUS shared secret")
	flag.StringVar(&cfg.RadiusScheme, "radius-scheme", cfg.RadiusScheme, "MAB credential scheme: eap-md5, chap, or pap")
	flag.StringVar(&cfg.NASIdentifier, "nas-identifier", cfg.NASIdentifier, "NAS-Identifier attribute value")
	flag.StringVar(&cfg.NASIP, "nas-ip", cfg.NASIP, "NAS-IP-Address attribute value")
	flag.StringVar(&cfg.NASIPv6, "nas-ipv6", cfg.NASIPv6, "NAS-IPv6-Address attribute value")
	flag.StringVar(&cfg.SwitchMAC, "switch-mac", cfg.SwitchMAC, "Switch MAC used as Called-Station-Id")
	flag.StringVar(&cfg.AuditDBPath, "audit-db", cfg.AuditDBPath, "Path to SQLite admin-operation audit log")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")

	flag.Parse()
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultAuditDBPath returns the default audit database path in the
// user's home directory, creating the directory if needed.
func getDefaultAuditDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "pacd.db"
	}

	pacdDir := filepath.Join(home, ".pacd")
	if err := os.MkdirAll(pacdDir, 0755); err != nil {
		log.Printf("Warning: Could not create .pacd directory, using current dir: %v", err)
		return "pacd.db"
	}

	return filepath.Join(pacdDir, "pacd.db")
}
