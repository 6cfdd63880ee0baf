package cliapp

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	restapi "github.com/nxp-qmc/qmc2g-core/internal/restapi"

	"github.com/nxp-qmc/qmc2g-core/internal/board"
	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/mqttpublish"
)

var validate = validator.New()

// ConfigStoreConfig locates the on-disk configuration store and the
// symmetric key used to seal it, mirroring the FlexSPI NVM region the
// firmware's configuration server owns on real hardware.
type ConfigStoreConfig struct {
	Dir string `mapstructure:"dir" validate:"required" yaml:"dir"`

	// SealKeyHex is a 64-hexchar AES-256 key used when no secure element
	// is attached. Production images are expected to override this with
	// a key derived on-device; see DESIGN.md's Open Question decision on
	// internal/secureelement wiring.
	SealKeyHex string `mapstructure:"seal_key_hex" yaml:"seal_key_hex"`
}

// LogPipelineConfig locates the flash-backed log ring.
type LogPipelineConfig struct {
	FlashDir   string `mapstructure:"flash_dir" validate:"required" yaml:"flash_dir"`
	AreaLength uint64 `mapstructure:"area_length" yaml:"area_length"`
	SectorSize uint32 `mapstructure:"sector_size" yaml:"sector_size"`
	QueueLen   int    `mapstructure:"queue_len" yaml:"queue_len"`
}

func (c *LogPipelineConfig) applyDefaults() {
	if c.AreaLength == 0 {
		c.AreaLength = 1 << 20
	}
	if c.SectorSize == 0 {
		c.SectorSize = 4096
	}
	if c.QueueLen == 0 {
		c.QueueLen = 64
	}
}

// FaultConfig configures the fault handler: its queue depth and a single
// immediate-stop switch. It holds no per-motor-pair stop matrix.
type FaultConfig struct {
	QueueLen int `mapstructure:"queue_len" yaml:"queue_len"`

	// StopAllOnAnyFault mirrors the simplest immediate-stop configuration:
	// any motor fault stops every other motor too. A per-pair matrix is
	// the natural next step once the configuration store grows a key for
	// it (see DESIGN.md).
	StopAllOnAnyFault bool `mapstructure:"stop_all_on_any_fault" yaml:"stop_all_on_any_fault"`
}

func (c *FaultConfig) applyDefaults() {
	if c.QueueLen == 0 {
		c.QueueLen = 16
	}
}

// BoardConfig overrides the board service's default over-temperature
// thresholds.
type BoardConfig struct {
	PSBTemp1 float64 `mapstructure:"psb_temp1" yaml:"psb_temp1"`
	PSBTemp2 float64 `mapstructure:"psb_temp2" yaml:"psb_temp2"`
	DBTemp   float64 `mapstructure:"db_temp" yaml:"db_temp"`
	MCUTemp  float64 `mapstructure:"mcu_temp" yaml:"mcu_temp"`
}

func (c BoardConfig) thresholds() board.Thresholds {
	t := board.DefaultThresholds()
	if c.PSBTemp1 != 0 {
		t.PSBTemp1 = c.PSBTemp1
	}
	if c.PSBTemp2 != 0 {
		t.PSBTemp2 = c.PSBTemp2
	}
	if c.DBTemp != 0 {
		t.DBTemp = c.DBTemp
	}
	if c.MCUTemp != 0 {
		t.MCUTemp = c.MCUTemp
	}
	return t
}

// Config aggregates every collaborator's configuration into the single
// file qmcd reads at startup.
type Config struct {
	DeviceID  string `mapstructure:"device_id" validate:"required" yaml:"device_id"`
	FWVersion string `mapstructure:"fw_version" yaml:"fw_version"`

	Logger logger.Config `mapstructure:"logging" yaml:"logging"`

	ConfigStore ConfigStoreConfig `mapstructure:"config_store" yaml:"config_store"`
	LogPipeline LogPipelineConfig `mapstructure:"log_pipeline" yaml:"log_pipeline"`
	Fault       FaultConfig       `mapstructure:"fault" yaml:"fault"`
	Board       BoardConfig       `mapstructure:"board" yaml:"board"`

	RestAPI restapi.Config    `mapstructure:"rest_api" yaml:"rest_api"`
	MQTT    mqttpublish.Config `mapstructure:"mqtt" yaml:"mqtt"`

	// CommandQueueLen bounds internal/motorbus's shared command queue.
	CommandQueueLen int `mapstructure:"command_queue_len" yaml:"command_queue_len"`
}

func (c *Config) applyDefaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = "INFO"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}
	if c.ConfigStore.Dir == "" {
		c.ConfigStore.Dir = defaultStateDir("configstore")
	}
	if c.LogPipeline.FlashDir == "" {
		c.LogPipeline.FlashDir = defaultStateDir("logpipeline")
	}
	if c.CommandQueueLen == 0 {
		c.CommandQueueLen = 32
	}
	c.LogPipeline.applyDefaults()
	c.Fault.applyDefaults()
}

// loadConfig reads and validates the YAML config at path, applying
// defaults for anything left unset.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// writeSampleConfig writes a commented sample configuration to path,
// refusing to overwrite an existing file unless force is set.
func writeSampleConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, []byte(sampleConfigYAML), 0o600)
}

const sampleConfigYAML = `# qmcd configuration.
device_id: qmc2g-001
fw_version: "0.0.0"

logging:
  level: INFO
  format: json
  output: stdout

config_store:
  dir: /var/lib/qmcd/configstore
  # seal_key_hex: "" # 64 hex chars; required in production, see DESIGN.md

log_pipeline:
  flash_dir: /var/lib/qmcd/logpipeline
  area_length: 1048576
  sector_size: 4096
  queue_len: 64

fault:
  queue_len: 16
  stop_all_on_any_fault: false

board:
  psb_temp1: 100.0
  psb_temp2: 100.0
  db_temp: 85.0
  mcu_temp: 105.0

command_queue_len: 32

rest_api:
  port: 443
  cert_file: ""
  key_file: ""
  fw_staging_dir: /var/lib/qmcd/fwupload

mqtt:
  mode: 1 # 0 = azure, 1 = generic
  device_id: qmc2g-001
  generic:
    host: localhost
    port: 1883
`
