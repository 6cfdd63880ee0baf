package mqttpublish

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAzureTLSConfigLoadsClientCertificate(t *testing.T) {
	cfg := AzureConfig{
		HubName:  "myhub",
		CertFile: "testdata/cert.pem",
		KeyFile:  "testdata/key.pem",
	}

	tlsConfig, err := azureTLSConfig(cfg)
	require.NoError(t, err)
	require.Len(t, tlsConfig.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), tlsConfig.MinVersion)
}

func TestAzureTLSConfigRejectsMissingFiles(t *testing.T) {
	cfg := AzureConfig{CertFile: "testdata/nope.pem", KeyFile: "testdata/nope-key.pem"}

	_, err := azureTLSConfig(cfg)
	assert.Error(t, err)
}
