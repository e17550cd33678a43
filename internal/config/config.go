package config

import (
	"crypto/rsa"
	"encoding/base64"
	"os"
	"strconv"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/constants"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
)

type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	DBUrl            string
	DBMaxConns       int32
	RSAPrivateKey    *rsa.PrivateKey
	RSAPublicKey     *rsa.PublicKey

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AMQPUrl      string
	AMQPExchange string

	GuestBookingsPerIPPerHour int
	SlotWatchRetention        time.Duration

	LDFlag_SeedDbWithTestData bool
	LDFlag_CORSHighSecurity   bool
	LDFlag_AutoMigrateSchema  bool
}

const (
	OrganizationName    = utils.OrganizationName
	LDConnectionTimeout = 5 * time.Second
	DefaultAMQPExchange = "booking.events"
)

var (
	AppName             = "escape-booking-service"
	LDServerContextKey  = "escape-booking-service"
	LDServerContextKind = "service"
)

func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}

	pubB64 := os.Getenv("RSA_PUBLIC_KEY_BASE64")
	if pubB64 == "" {
		utils.Logger.Fatal("RSA_PUBLIC_KEY_BASE64 env var is missing")
	}
	pubKey, err := ParsePublicKeyBase64(pubB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	var privKey *rsa.PrivateKey
	if privB64 := os.Getenv("RSA_PRIVATE_KEY_BASE64"); privB64 != "" {
		privKey, err = ParsePrivateKeyBase64(privB64)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to parse RSA private key")
		}
	} else {
		utils.Logger.Warn("RSA_PRIVATE_KEY_BASE64 not set; operator login disabled")
	}

	exchange := os.Getenv("AMQP_EXCHANGE")
	if exchange == "" {
		exchange = DefaultAMQPExchange
	}

	cfg := &Config{
		OrganizationName:          OrganizationName,
		AppName:                   AppName,
		AppPort:                   appPort,
		AppUrl:                    os.Getenv("APP_URL"),
		DBUrl:                     dbURL,
		DBMaxConns:                int32(envInt("DB_MAX_CONNS", 0)),
		RSAPrivateKey:             privKey,
		RSAPublicKey:              pubKey,
		RedisAddr:                 os.Getenv("REDIS_ADDR"),
		RedisPassword:             os.Getenv("REDIS_PASSWORD"),
		RedisDB:                   envInt("REDIS_DB", 0),
		AMQPUrl:                   os.Getenv("AMQP_URL"),
		AMQPExchange:              exchange,
		GuestBookingsPerIPPerHour: envInt("GUEST_BOOKINGS_PER_IP_PER_HOUR", constants.DefaultGuestBookingsPerIPPerHour),
		SlotWatchRetention:        time.Duration(envInt("SLOT_WATCH_RETENTION_DAYS", 0)) * 24 * time.Hour,
		LDFlag_SeedDbWithTestData: envBool("SEED_DB_WITH_TEST_DATA", false),
		LDFlag_CORSHighSecurity:   envBool("CORS_HIGH_SECURITY", false),
		LDFlag_AutoMigrateSchema:  envBool("AUTO_MIGRATE_SCHEMA", true),
	}
	if cfg.SlotWatchRetention <= 0 {
		cfg.SlotWatchRetention = constants.DefaultWatchRetention
	}

	if ldSDKKey := os.Getenv("LD_SDK_KEY"); ldSDKKey != "" {
		loadFlags(ldSDKKey, cfg)
	} else {
		utils.Logger.Info("LD_SDK_KEY not set; using env defaults for feature flags")
	}

	return cfg
}

func loadFlags(sdkKey string, cfg *Config) {
	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	defer ldClient.Close()

	ctx := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)

	seedDbWithTestDataFlag, err := ldClient.BoolVariation("seed_db_with_test_data", ctx, cfg.LDFlag_SeedDbWithTestData)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving seed_db_with_test_data flag")
	}
	utils.Logger.Debugf("seed_db_with_test_data flag: %t", seedDbWithTestDataFlag)

	corsHighSecurityFlag, err := ldClient.BoolVariation("cors_high_security", ctx, cfg.LDFlag_CORSHighSecurity)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving cors_high_security flag")
	}
	utils.Logger.Debugf("cors_high_security flag: %t", corsHighSecurityFlag)

	autoMigrateFlag, err := ldClient.BoolVariation("auto_migrate_schema", ctx, cfg.LDFlag_AutoMigrateSchema)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving auto_migrate_schema flag")
	}
	utils.Logger.Debugf("auto_migrate_schema flag: %t", autoMigrateFlag)

	cfg.LDFlag_SeedDbWithTestData = seedDbWithTestDataFlag
	cfg.LDFlag_CORSHighSecurity = corsHighSecurityFlag
	cfg.LDFlag_AutoMigrateSchema = autoMigrateFlag
}

func ParsePublicKeyBase64(b64 string) (*rsa.PublicKey, error) {
	pem, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPublicKeyFromPEM(pem)
}

func ParsePrivateKeyBase64(b64 string) (*rsa.PrivateKey, error) {
	pem, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPrivateKeyFromPEM(pem)
}

func envInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		utils.Logger.Fatalf("%s must be an integer", name)
	}
	return n
}

func envBool(name string, def bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		utils.Logger.Fatalf("%s must be a boolean", name)
	}
	return b
}

func (c *Config) Close() {}
