package identity

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/loopin/signage-agent/pkg/file"
)

// pairingPrefix makes the code recognizable as a screen identifier when an
// operator types it into the console.
const pairingPrefix = "SCRN"

// Identity holds the device's stable pairing code.
type Identity struct {
	ID string `json:"device_id,omitempty"`
}

// DeviceInfoInterface defines methods for managing the device identity.
type DeviceInfoInterface interface {
	LoadDeviceInfo() error
	GetDeviceID() string
}

// DeviceInfo manages the pairing code and its backing file. The code is
// generated exactly once per durable storage lifetime; every later boot
// reloads the same value so the console binding survives restarts.
type DeviceInfo struct {
	DeviceInfoFile string
	Identity       Identity
	fileOps        file.FileOperations
}

// NewDeviceInfo initializes a new DeviceInfo instance.
func NewDeviceInfo(filePath string, fileOps file.FileOperations) DeviceInfoInterface {
	return &DeviceInfo{
		DeviceInfoFile: filePath,
		fileOps:        fileOps,
		Identity:       Identity{},
	}
}

// LoadDeviceInfo reads the identity file, generating and persisting a fresh
// pairing code on first boot.
func (d *DeviceInfo) LoadDeviceInfo() error {
	err := d.fileOps.ReadJsonFile(d.DeviceInfoFile, &d.Identity)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	if d.Identity.ID == "" {
		d.Identity.ID = newPairingCode()
		if err := d.fileOps.WriteJsonFile(d.DeviceInfoFile, d.Identity); err != nil {
			return fmt.Errorf("failed to persist device identity: %w", err)
		}
	}

	return nil
}

// GetDeviceID returns the device's pairing code.
func (d *DeviceInfo) GetDeviceID() string {
	return d.Identity.ID
}

// newPairingCode builds a short human-presentable code from a random UUID.
func newPairingCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%s-%s", pairingPrefix, strings.ToUpper(raw[:6]))
}
