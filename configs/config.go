package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Prettify bool   `mapstructure:"prettify"`
}

type RPCConfig struct {
	URL string `mapstructure:"url"`
}

type RangeConfig struct {
	Start uint64 `mapstructure:"start"`
	End   uint64 `mapstructure:"end"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type OutputFormat string

const (
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatParquet OutputFormat = "parquet"
)

type OutputConfig struct {
	Path   string       `mapstructure:"path"`
	Format OutputFormat `mapstructure:"format"`
	// Legacy writes the flat [{blockNumber, txHash, storageSlots}] document instead of {blocks, txs}.
	Legacy bool         `mapstructure:"legacy"`
	S3     *S3Config    `mapstructure:"s3"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
}

type ClickhouseConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Database   string `mapstructure:"database"`
	Table      string `mapstructure:"table"`
	DisableTLS bool   `mapstructure:"disableTLS"`
}

type KafkaConfig struct {
	Brokers   string `mapstructure:"brokers"`
	Topic     string `mapstructure:"topic"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	EnableTLS bool   `mapstructure:"enableTLS"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	SSLMode        string `mapstructure:"sslMode"`
	ConnectTimeout int    `mapstructure:"connectTimeout"`
	Table          string `mapstructure:"table"`
}

// StorageConfig lists the optional sinks that receive the collected records in
// addition to the output file. A nil entry disables that sink.
type StorageConfig struct {
	Clickhouse *ClickhouseConfig `mapstructure:"clickhouse"`
	Kafka      *KafkaConfig      `mapstructure:"kafka"`
	Postgres   *PostgresConfig   `mapstructure:"postgres"`
}

type Config struct {
	RPC     RPCConfig     `mapstructure:"rpc"`
	Range   RangeConfig   `mapstructure:"range"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Output  OutputConfig  `mapstructure:"output"`
	Storage StorageConfig `mapstructure:"storage"`
}

const DefaultOutputPath = "traces.json"

var Cfg Config

func LoadConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}
	}

	viper.SetDefault("output.path", DefaultOutputPath)
	viper.SetDefault("output.format", string(OutputFormatJSON))
	viper.SetDefault("log.level", "info")

	// sets e.g. RPC_URL to rpc.url
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}

	return Cfg.Output.Validate()
}

func (o OutputConfig) Validate() error {
	switch o.Format {
	case OutputFormatJSON, OutputFormatParquet:
	default:
		return fmt.Errorf("unsupported output format %q", o.Format)
	}
	if o.Path == "" {
		return fmt.Errorf("output path is empty")
	}
	if o.Legacy && o.Format != OutputFormatJSON {
		return fmt.Errorf("legacy output is only available for the json format")
	}
	if o.S3 != nil && o.S3.Bucket == "" {
		return fmt.Errorf("output.s3.bucket is required when s3 upload is configured")
	}
	return nil
}
