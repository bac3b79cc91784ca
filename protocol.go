package main

// ConnState is the BLE link state as seen by the peripheral.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnected    ConnState = "connected"
)

// Wire protocol over the Nordic UART service.
const (
	cmdGetAlarms = "get-alarms"

	nusServiceUUID = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	nusRXUUID      = "6e400002-b5a3-f393-e0a9-e50e24dcca9e" // central -> device, write
	nusTXUUID      = "6e400003-b5a3-f393-e0a9-e50e24dcca9e" // device -> central, read|notify

	defaultFrameSize = 20
)

// IPCRequest is sent from the CLI client to the daemon.
type IPCRequest struct {
	Command string `json:"command"` // "status" | "alarms" | "stop"
}

// IPCResponse is sent from the daemon back to the CLI client.
type IPCResponse struct {
	State       string    `json:"state,omitempty"` // "connected", "disconnected"
	Advertising bool      `json:"advertising,omitempty"`
	Ringing     bool      `json:"ringing,omitempty"`
	AlarmCount  int       `json:"alarm_count,omitempty"`
	SSID        string    `json:"ssid,omitempty"`
	Alarms      AlarmList `json:"alarms,omitempty"`
	Error       string    `json:"error,omitempty"`
}
