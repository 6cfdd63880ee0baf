package mqttpublish

import (
	"fmt"
	"strings"
)

// Logical topic names, independent of the physical topic scheme either
// mode maps them onto.
const (
	topicFWVersion               = "system/FW_version"
	topicRestartRequiredCfgBkup  = "system/restart_required_configuration_backup"
	topicRestartRequiredFwCommit = "system/restart_required_fw_update_commit"
	topicADStatus                = "system/AD_status"
	topicSDCardAvailable         = "system/SD_card_available"
	topicSystemFaultStatus       = "system/system_fault_status"
	topicLifecycleState          = "system/life_cycle_state"

	topicLogLatestRecord = "log/latest_record"
	topicLogMessageLost  = "log/message_lost"
	topicLogMemoryLow    = "log/memory_low"
	topicLogFlashError   = "log/flash_error"
)

func motorTopicFaultStatus(n int) string { return fmt.Sprintf("motor_%d/fault_status", n) }
func motorTopicSpeed(n int) string       { return fmt.Sprintf("motor_%d/speed", n) }
func motorTopicPosition(n int) string    { return fmt.Sprintf("motor_%d/position", n) }

// physicalTopic resolves a logical topic to the wire topic the configured
// mode publishes on.
//
//   - Azure IoT Hub mode: a single physical topic per device,
//     "devices/<deviceId>/messages/events/topic=QMC_<deviceId>-<logical>",
//     with slashes in the logical topic replaced by "-".
//   - Generic MQTT mode: "QMC_<deviceId>/<logical>" literally.
func physicalTopic(mode Mode, deviceID, logical string) string {
	switch mode {
	case ModeAzure:
		flattened := strings.ReplaceAll(logical, "/", "-")
		return fmt.Sprintf("devices/%s/messages/events/topic=QMC_%s-%s", deviceID, deviceID, flattened)
	default:
		return fmt.Sprintf("QMC_%s/%s", deviceID, logical)
	}
}
