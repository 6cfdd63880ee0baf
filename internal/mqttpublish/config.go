// Package mqttpublish publishes the device's cloud telemetry surface over
// MQTT, in one of two mutually exclusive modes chosen at build/config
// time: an Azure IoT Hub device connection authenticated by client
// certificate, or a generic broker authenticated by username/password.
package mqttpublish

import "time"

// Mode selects which MQTT backend Client dials.
type Mode int

const (
	// ModeAzure dials an Azure IoT Hub device endpoint over TLS using a
	// client certificate as the sole credential.
	ModeAzure Mode = iota
	// ModeGeneric dials a standard broker with username/password auth.
	ModeGeneric
)

// AzureConfig configures an Azure IoT Hub device connection.
type AzureConfig struct {
	HubName  string `mapstructure:"hub_name" yaml:"hub_name"`
	CertFile string `mapstructure:"cert_file" yaml:"cert_file"`
	KeyFile  string `mapstructure:"key_file" yaml:"key_file"`
}

// GenericConfig configures a standard MQTT broker connection.
type GenericConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	User string `mapstructure:"user" yaml:"user"`
	Pass string `mapstructure:"pass" yaml:"pass"`
}

// Config configures the telemetry publisher.
type Config struct {
	Mode     Mode   `mapstructure:"mode" yaml:"mode"`
	DeviceID string `mapstructure:"device_id" validate:"required" yaml:"device_id"`

	Azure   AzureConfig   `mapstructure:"azure" yaml:"azure"`
	Generic GenericConfig `mapstructure:"generic" yaml:"generic"`

	// FWVersionInterval/SystemStatusInterval bound the periodic
	// republish cadence of system/FW_version and system/* even when
	// nothing has changed. Default: 5s each.
	FWVersionInterval    time.Duration `mapstructure:"fw_version_interval" yaml:"fw_version_interval"`
	SystemStatusInterval time.Duration `mapstructure:"system_status_interval" yaml:"system_status_interval"`

	// MotorStatusPrescaler publishes motor telemetry every Nth motor-bus
	// status sample instead of every sample. Default: 25.
	MotorStatusPrescaler uint32 `mapstructure:"motor_status_prescaler" yaml:"motor_status_prescaler"`
}

func (c *Config) applyDefaults() {
	if c.FWVersionInterval == 0 {
		c.FWVersionInterval = 5 * time.Second
	}
	if c.SystemStatusInterval == 0 {
		c.SystemStatusInterval = 5 * time.Second
	}
	if c.MotorStatusPrescaler == 0 {
		c.MotorStatusPrescaler = 25
	}
}
