// Package cmd implements the stark-verifier command line.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/logging"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/utils"
	starkverifier "github.com/vybium/vybium-stark-verifier/pkg/stark-verifier"
)

const envPrefix = "STARK_VERIFIER"

// persistent flag names, also used as viper keys
const (
	flagLogLevel         = "log-level"
	flagLogFormat        = "log-format"
	flagVKVerification   = "vk-verification"
	flagMachineCacheSize = "machine-cache-size"
	flagMaxProofBytes    = "max-proof-bytes"
	flagMaxLogDegree     = "max-log-degree"
)

var rootCmd = &cobra.Command{
	Use:          "stark-verifier",
	Short:        "Verify Pico and PicoPrism STARK proof bundles",
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaults := utils.DefaultConfig()

	flags := rootCmd.PersistentFlags()
	flags.String(flagLogLevel, defaults.LogLevel, "log level (trace, debug, info, warn, error)")
	flags.String(flagLogFormat, defaults.LogFormat, "log format (json or console)")
	flags.Bool(flagVKVerification, defaults.VKVerification, "bind every segment to the digest of its verifying key")
	flags.Int(flagMachineCacheSize, defaults.MachineCacheSize, "number of verification machines to cache, 0 disables caching")
	flags.Int(flagMaxProofBytes, defaults.MaxProofBytes, "largest accepted proof or key input in bytes, 0 disables the limit")
	flags.Int(flagMaxLogDegree, defaults.MaxLogDegree, "largest accepted chip log degree")
	_ = viper.BindPFlags(flags)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	// the bare toggle is honoured as well as the prefixed one
	_ = viper.BindEnv(flagVKVerification, envPrefix+"_VK_VERIFICATION", utils.EnvVKVerification)
}

// loadConfig resolves flags, environment and defaults into a validated
// configuration.
func loadConfig() (*utils.Config, error) {
	config := utils.DefaultConfig().
		WithVKVerification(viper.GetBool(flagVKVerification)).
		WithMachineCacheSize(viper.GetInt(flagMachineCacheSize)).
		WithMaxProofBytes(viper.GetInt(flagMaxProofBytes)).
		WithMaxLogDegree(viper.GetInt(flagMaxLogDegree)).
		WithLogLevel(viper.GetString(flagLogLevel)).
		WithLogFormat(viper.GetString(flagLogFormat))
	if addr := viper.GetString(flagAddr); addr != "" {
		config = config.WithListenAddr(addr)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// setup loads the configuration and builds the logger and verifier shared by
// every subcommand.
func setup(opts ...starkverifier.Option) (*utils.Config, zerolog.Logger, *starkverifier.Verifier, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	log, err := logging.New(os.Stderr, config.LogLevel, config.LogFormat)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	opts = append([]starkverifier.Option{starkverifier.WithLogger(log)}, opts...)
	v, err := starkverifier.New(config, opts...)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	return config, log, v, nil
}
