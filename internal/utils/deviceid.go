package utils

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// DeviceBinding returns a stable identifier of this machine, used to tie an
// encrypted session to the device it was created on.
func DeviceBinding() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return macOSUUID()
	case "linux":
		return linuxMachineID()
	case "windows":
		return windowsUUID()
	default:
		return "", errors.New("unsupported platform: " + runtime.GOOS)
	}
}

func macOSUUID() (string, error) {
	out, err := exec.Command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.Contains(line, "IOPlatformUUID") {
			parts := strings.Split(line, "\"")
			if len(parts) >= 4 {
				return parts[3], nil
			}
		}
	}
	return "", errors.New("no IOPlatformUUID found")
}

func linuxMachineID() (string, error) {
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id", "/sys/class/dmi/id/product_uuid"} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}
	return "", errors.New("no machine id found on Linux")
}

func windowsUUID() (string, error) {
	out, err := exec.Command("wmic", "csproduct", "get", "UUID").Output()
	if err != nil {
		return "", err
	}
	for _, line := range bytes.Split(out, []byte("\n")) {
		s := strings.TrimSpace(string(line))
		if s != "" && !strings.EqualFold(s, "UUID") {
			return s, nil
		}
	}
	return "", errors.New("no hardware UUID found on Windows")
}
