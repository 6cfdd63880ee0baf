package mqttpublish

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nxp-qmc/qmc2g-core/internal/logger"
)

// newClient builds a paho client for the configured mode, following the
// broker-URL/auto-reconnect client-options pattern of a Modbus-to-MQTT
// telemetry bridge: AddBroker/SetClientID/SetAutoReconnect/
// SetConnectRetry, with TLS and credentials layered on for each mode.
func newClient(cfg Config) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		SetClientID("qmc2g-" + cfg.DeviceID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Error("mqtt connection lost", logger.Component("mqttpublish"), logger.Err(err))
		})

	switch cfg.Mode {
	case ModeAzure:
		tlsConfig, err := azureTLSConfig(cfg.Azure)
		if err != nil {
			return nil, fmt.Errorf("mqttpublish: azure tls config: %w", err)
		}
		opts.AddBroker(fmt.Sprintf("tls://%s.azure-devices.net:8883", cfg.Azure.HubName))
		opts.SetUsername(fmt.Sprintf("%s.azure-devices.net/%s/?api-version=2021-04-12", cfg.Azure.HubName, cfg.DeviceID))
		opts.SetTLSConfig(tlsConfig)
	case ModeGeneric:
		opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Generic.Host, cfg.Generic.Port))
		if cfg.Generic.User != "" {
			opts.SetUsername(cfg.Generic.User)
			opts.SetPassword(cfg.Generic.Pass)
		}
	default:
		return nil, fmt.Errorf("mqttpublish: unknown mode %d", cfg.Mode)
	}

	client := mqtt.NewClient(opts)
	if tok := client.Connect(); !tok.WaitTimeout(10*time.Second) || tok.Error() != nil {
		return nil, fmt.Errorf("mqttpublish: connect: %w", tok.Error())
	}
	return client, nil
}

// azureTLSConfig loads the device client certificate Azure IoT Hub
// accepts in place of a username/password credential.
func azureTLSConfig(cfg AzureConfig) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
