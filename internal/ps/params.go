package ps

// Sleep types understood by the firmware
const (
	SleepTypeLP  uint8 = 1 // low power
	SleepTypeULP uint8 = 2 // ultra low power
)

// Parameters holds the power-save configuration of one adapter. It is
// owned by the adapter record and read (never mutated) by the
// controller when building a request frame.
type Parameters struct {
	Enabled                  bool   `json:"enabled" yaml:"enabled"`
	SleepType                uint8  `json:"sleepType" yaml:"sleep_type"`
	TxThreshold              uint32 `json:"txThreshold" yaml:"tx_threshold"`
	RxThreshold              uint32 `json:"rxThreshold" yaml:"rx_threshold"`
	TxHysteresis             uint32 `json:"txHysteresis" yaml:"tx_hysteresis"`
	RxHysteresis             uint32 `json:"rxHysteresis" yaml:"rx_hysteresis"`
	MonitorInterval          uint16 `json:"monitorInterval" yaml:"monitor_interval"`
	ListenInterval           uint16 `json:"listenInterval" yaml:"listen_interval"`
	BeaconsPerListenInterval uint16 `json:"beaconsPerListenInterval" yaml:"beacons_per_listen_interval"`
	DTIMIntervalDuration     uint16 `json:"dtimIntervalDuration" yaml:"dtim_interval_duration"`
	DTIMsPerSleep            uint16 `json:"dtimsPerSleep" yaml:"dtims_per_sleep"`
	DeepSleepWakeupPeriod    uint16 `json:"deepSleepWakeupPeriod" yaml:"deep_sleep_wakeup_period"`
}

// DefaultParameters returns the operational defaults an adapter is
// initialized with. These may be overridden by configuration before
// the first enable request.
func DefaultParameters() Parameters {
	return Parameters{
		Enabled:               true,
		SleepType:             SleepTypeLP,
		ListenInterval:        2 * 100,
		DeepSleepWakeupPeriod: 100,
	}
}
