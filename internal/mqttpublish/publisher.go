package mqttpublish

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nxp-qmc/qmc2g-core/internal/fault"
	"github.com/nxp-qmc/qmc2g-core/internal/lifecycle"
	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
)

// FaultStatusSource reports the system-wide fault bitmask, satisfied by
// *internal/fault.Handler.
type FaultStatusSource interface {
	SystemFaultStatus() fault.Source
}

// SystemStatusSource reports board-level availability signals this tree
// has no dedicated component for (analog-domain health, SD card
// presence); callers wire in whatever reads the underlying GPIO/RPC.
type SystemStatusSource interface {
	ADStatus() bool
	SDCardAvailable() bool
}

// Publisher is the MQTT telemetry surface: it owns one connected client
// and republishes system, motor, and log state at the cadences spec §6
// sets, independent of the mode (Azure IoT Hub or generic broker) the
// client was built for.
type Publisher struct {
	client mqtt.Client
	cfg    Config

	FWVersion string
	Lifecycle *lifecycle.Machine
	Faults    FaultStatusSource
	System    SystemStatusSource
	Motors    *motorbus.Bus
	Log       *logpipeline.Service
}

// New connects a client for cfg and returns a Publisher ready to Run.
func New(cfg Config, fwVersion string, lc *lifecycle.Machine, faults FaultStatusSource, system SystemStatusSource, motors *motorbus.Bus, log *logpipeline.Service) (*Publisher, error) {
	cfg.applyDefaults()
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		client:    client,
		cfg:       cfg,
		FWVersion: fwVersion,
		Lifecycle: lc,
		Faults:    faults,
		System:    system,
		Motors:    motors,
		Log:       log,
	}, nil
}

func (p *Publisher) publish(logical, payload string) {
	topic := physicalTopic(p.cfg.Mode, p.cfg.DeviceID, logical)
	tok := p.client.Publish(topic, 1, false, payload)
	go func() {
		if tok.WaitTimeout(5*time.Second) && tok.Error() != nil {
			logger.Error("mqtt publish failed",
				logger.Component("mqttpublish"), "topic", logical, logger.Err(tok.Error()))
		}
	}()
}

// Run starts every publish loop and blocks until ctx is done, then
// disconnects the client.
func (p *Publisher) Run(ctx context.Context) {
	go p.runFWVersion(ctx)
	go p.runSystemStatus(ctx)
	go p.runMotorStatus(ctx)
	go p.runLog(ctx)

	<-ctx.Done()
	p.client.Disconnect(250)
}

func (p *Publisher) runFWVersion(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.FWVersionInterval)
	defer ticker.Stop()
	for {
		p.publish(topicFWVersion, p.FWVersion)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// systemSnapshot is the comparable subset of system/* state that decides
// whether an out-of-cadence publish is due.
type systemSnapshot struct {
	restartCfgBackup bool
	restartFwCommit  bool
	adStatus         bool
	sdCardAvailable  bool
	faultStatus      fault.Source
	lifecycleState   lifecycle.State
}

func (p *Publisher) snapshotSystem() systemSnapshot {
	snap := systemSnapshot{}
	if p.Lifecycle != nil {
		snap.lifecycleState = p.Lifecycle.State()
		switch p.Lifecycle.BootFwState() {
		case lifecycle.FwBackupCfg:
			snap.restartCfgBackup = true
		case lifecycle.FwCommit:
			snap.restartFwCommit = true
		}
	}
	if p.System != nil {
		snap.adStatus = p.System.ADStatus()
		snap.sdCardAvailable = p.System.SDCardAvailable()
	}
	if p.Faults != nil {
		snap.faultStatus = p.Faults.SystemFaultStatus()
	}
	return snap
}

func (p *Publisher) publishSystem(snap systemSnapshot) {
	p.publish(topicRestartRequiredCfgBkup, strconv.FormatBool(snap.restartCfgBackup))
	p.publish(topicRestartRequiredFwCommit, strconv.FormatBool(snap.restartFwCommit))
	p.publish(topicADStatus, strconv.FormatBool(snap.adStatus))
	p.publish(topicSDCardAvailable, strconv.FormatBool(snap.sdCardAvailable))
	p.publish(topicSystemFaultStatus, fmt.Sprintf("%08x", uint64(snap.faultStatus)))
	p.publish(topicLifecycleState, snap.lifecycleState.String())
}

// runSystemStatus republishes system/* on change, and at least every
// SystemStatusInterval regardless, per spec §6's "on-change or every 5s".
func (p *Publisher) runSystemStatus(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	var last systemSnapshot
	var lastPublish time.Time
	first := true

	for {
		snap := p.snapshotSystem()
		if first || snap != last || time.Since(lastPublish) >= p.cfg.SystemStatusInterval {
			p.publishSystem(snap)
			last = snap
			lastPublish = time.Now()
			first = false
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runMotorStatus subscribes to the motor bus at MotorStatusPrescaler and
// republishes the sampled motor's fault/speed/position telemetry,
// matching spec §6's "every 25th DataHub sample" cadence.
func (p *Publisher) runMotorStatus(ctx context.Context) {
	if p.Motors == nil {
		return
	}
	queue, mask, err := p.Motors.NewStatusQueue(p.cfg.MotorStatusPrescaler, motorbus.MaxMotors*2)
	if err != nil {
		logger.Error("mqttpublish: motor status subscription failed",
			logger.Component("mqttpublish"), logger.Err(err))
		return
	}
	defer p.Motors.ReturnStatusQueue(mask)
	_ = queue

	for {
		status, err := p.Motors.DequeueStatus(ctx, mask)
		if err != nil {
			return
		}
		if !status.MotorID.Valid() {
			continue
		}
		n := int(status.MotorID) + 1
		position := float64(status.Slow.Position.NumTurns) + float64(status.Slow.Position.RotorPosition)/65535.0

		p.publish(motorTopicFaultStatus(n), fmt.Sprintf("%08x", status.Fast.FaultMask))
		p.publish(motorTopicSpeed(n), fmt.Sprintf("%.2f", status.Slow.Speed))
		p.publish(motorTopicPosition(n), fmt.Sprintf("%.2f", position))
	}
}

// logExportQueueDepth bounds how many encrypted records the MQTT export
// subscription buffers before Push starts dropping for this consumer.
const logExportQueueDepth = 16

// runLog republishes log/latest_record whenever a new export-consumer
// record arrives, and the log/{message_lost,memory_low,flash_error}
// flags alongside it.
func (p *Publisher) runLog(ctx context.Context) {
	if p.Log == nil {
		return
	}
	handle, err := p.Log.GetNewQueue(logExportQueueDepth)
	if err != nil {
		logger.Error("mqttpublish: log export subscription failed",
			logger.Component("mqttpublish"), logger.Err(err))
		return
	}
	defer p.Log.ReturnQueue(handle)

	for {
		rec, err := p.Log.DequeueEncrypted(ctx, handle)
		if err != nil {
			return
		}
		p.publish(topicLogLatestRecord, strings.ToUpper(hex.EncodeToString(rec.Bytes())))

		bits := p.Log.EventBits()
		p.publish(topicLogMessageLost, strconv.FormatBool(bits&logpipeline.SysEventLogMessageLost != 0))
		p.publish(topicLogFlashError, strconv.FormatBool(bits&logpipeline.SysEventLogFlashError != 0))
		p.publish(topicLogMemoryLow, strconv.FormatBool(p.Log.MemoryLow()))
	}
}
