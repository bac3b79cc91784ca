package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/exp/slices"
)

// alarmStore persists the alarm list. Load never fails: anything it cannot
// read comes back as an empty list.
type alarmStore interface {
	Load() AlarmList
	Save(AlarmList) error
}

// fileStore keeps the list as a JSON array in one file, overwritten whole on
// every save. read and write default to the host filesystem; the firmware
// points them at its flash filesystem.
type fileStore struct {
	path string
	log  *log.Logger

	read  func(path string) ([]byte, error)
	write func(path string, data []byte) error
}

func newFileStore(path string, logger *log.Logger) *fileStore {
	return &fileStore{path: path, log: logger, read: os.ReadFile, write: writeFileAll}
}

func writeFileAll(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create alarms dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *fileStore) Load() AlarmList {
	data, err := s.read(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Printf("read alarms %s: %v", s.path, err)
		}
		return AlarmList{}
	}
	if len(data) == 0 {
		s.log.Printf("alarms file %s is empty", s.path)
		return AlarmList{}
	}
	list, err := decodeAlarmList(data)
	if err != nil {
		s.log.Printf("parse alarms %s: %v", s.path, err)
		return AlarmList{}
	}
	return list
}

func (s *fileStore) Save(list AlarmList) error {
	data, err := encodeAlarmList(list)
	if err != nil {
		return fmt.Errorf("encode alarms: %w", err)
	}
	if err := s.write(s.path, data); err != nil {
		return fmt.Errorf("write alarms: %w", err)
	}
	return nil
}

// memoryStore is used when the flash filesystem cannot be mounted. Saves are kept as
// encoded JSON so Load behaves like a file round-trip.
type memoryStore struct {
	mu   sync.Mutex
	data []byte
}

func (s *memoryStore) Load() AlarmList {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return AlarmList{}
	}
	list, err := decodeAlarmList(s.data)
	if err != nil {
		return AlarmList{}
	}
	return list
}

func (s *memoryStore) Save(list AlarmList) error {
	data, err := encodeAlarmList(list)
	if err != nil {
		return fmt.Errorf("encode alarms: %w", err)
	}
	s.mu.Lock()
	s.data = slices.Clone(data)
	s.mu.Unlock()
	return nil
}

// credentials are the Wi-Fi network the board joins at boot.
type credentials struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

func loadCredentials(path string) credentials {
	var c credentials
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return credentials{}
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return credentials{}
	}
	return c
}
