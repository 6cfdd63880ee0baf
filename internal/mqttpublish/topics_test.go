package mqttpublish

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhysicalTopicAzureFlattensSlashesAndPrefixesDeviceRoute(t *testing.T) {
	got := physicalTopic(ModeAzure, "dev-1", topicSystemFaultStatus)
	assert.Equal(t, "devices/dev-1/messages/events/topic=QMC_dev-1-system-system_fault_status", got)
}

func TestPhysicalTopicGenericUsesLiteralLogicalTopic(t *testing.T) {
	got := physicalTopic(ModeGeneric, "dev-1", topicLogLatestRecord)
	assert.Equal(t, "QMC_dev-1/log/latest_record", got)
}

func TestMotorTopicHelpersAreOneIndexed(t *testing.T) {
	assert.Equal(t, "motor_1/fault_status", motorTopicFaultStatus(1))
	assert.Equal(t, "motor_4/speed", motorTopicSpeed(4))
	assert.Equal(t, "motor_2/position", motorTopicPosition(2))
}
