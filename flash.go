//go:build tinygo

package main

import (
	"fmt"
	"io"
	"log"
	"machine"
	"os"

	"tinygo.org/x/tinyfs/littlefs"
)

const flashAlarmsFile = "/alarms.json"

// mountFlash mounts littlefs on the on-chip flash, formatting it on first
// boot.
func mountFlash() (*littlefs.LFS, error) {
	lfs := littlefs.New(machine.Flash)
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 512,
		BlockCycles:   100,
	})
	if err := lfs.Mount(); err == nil {
		return lfs, nil
	}
	if err := lfs.Format(); err != nil {
		return nil, fmt.Errorf("format flash: %w", err)
	}
	if err := lfs.Mount(); err != nil {
		return nil, fmt.Errorf("mount flash: %w", err)
	}
	return lfs, nil
}

// newFlashStore keeps the alarm list in a littlefs file, falling back to
// RAM when the flash cannot be mounted.
func newFlashStore(logger *log.Logger) alarmStore {
	lfs, err := mountFlash()
	if err != nil {
		logger.Printf("%v; alarms will not survive a reboot", err)
		return &memoryStore{}
	}
	return &fileStore{
		path: flashAlarmsFile,
		log:  logger,
		read: func(path string) ([]byte, error) {
			f, err := lfs.Open(path)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return io.ReadAll(f)
		},
		write: func(path string, data []byte) error {
			f, err := lfs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
			if err != nil {
				return err
			}
			if _, err := f.Write(data); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}
