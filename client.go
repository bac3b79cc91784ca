//go:build !tinygo

package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

func ipcCall(req IPCRequest) (IPCResponse, error) {
	conn, err := net.Dial("unix", socketPath())
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to daemon: %w (is `alarmclock daemon` running?)", err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return IPCResponse{}, fmt.Errorf("send request: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return IPCResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.Error != "" {
		return resp, fmt.Errorf("%s", resp.Error)
	}
	return resp, nil
}

func runStatus() error {
	resp, err := ipcCall(IPCRequest{Command: "status"})
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(resp)
}

func runAlarms() error {
	resp, err := ipcCall(IPCRequest{Command: "alarms"})
	if err != nil {
		return err
	}
	if resp.Alarms == nil {
		resp.Alarms = AlarmList{}
	}
	return json.NewEncoder(os.Stdout).Encode(resp.Alarms)
}

func runStop() error {
	_, err := ipcCall(IPCRequest{Command: "stop"})
	return err
}
