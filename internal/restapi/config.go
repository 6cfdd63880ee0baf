package api

import "time"

// Config configures the REST/JSON HTTP server, ported from spec's "all
// under TLS" requirement for the external-interface surface.
type Config struct {
	// Port is the HTTPS port the API listens on. Default: 443.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// CertFile/KeyFile name the TLS server certificate and private key
	// the device presents. The server uses TLS only when both are set;
	// when either is empty it listens over plain HTTP.
	CertFile string `mapstructure:"cert_file" yaml:"cert_file"`
	KeyFile  string `mapstructure:"key_file" yaml:"key_file"`

	// ReadTimeout/WriteTimeout/IdleTimeout bound request handling and
	// idle keep-alive connections. Defaults: 10s/10s/60s.
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// ErrorLogInterval is the webservice error-count logging cadence,
	// mirroring WEBSERVICE_HTTPD_ERROR_LOG_INTERVAL (~60s).
	ErrorLogInterval time.Duration `mapstructure:"error_log_interval" yaml:"error_log_interval"`

	// FwStagingDir holds the in-progress /fwupload staging file.
	FwStagingDir string `mapstructure:"fw_staging_dir" yaml:"fw_staging_dir"`
}

func (c *Config) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 443
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ErrorLogInterval == 0 {
		c.ErrorLogInterval = 60 * time.Second
	}
	if c.FwStagingDir == "" {
		c.FwStagingDir = "."
	}
}
