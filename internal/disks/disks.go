package disks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nasfand/nasfand/internal/ui"
	"github.com/nasfand/nasfand/internal/util"
)

type DiskType string

const (
	DiskTypeHDD  DiskType = "HDD"
	DiskTypeSSD  DiskType = "SSD"
	DiskTypeNVMe DiskType = "NVMe"
	DiskTypeUSB  DiskType = "USB"
)

// Disk describes one discovered block device. ID is the durable key:
// it is derived from the bus slot order, so it survives device name
// changes across reboots while Device ("sda") may not.
type Disk struct {
	ID      string   `json:"id"`
	Device  string   `json:"device"`
	Path    string   `json:"path"`
	PciPath string   `json:"pci_path"`
	Model   string   `json:"model"`
	Serial  string   `json:"serial"`
	Size    string   `json:"size"`
	Type    DiskType `json:"type"`
	Temp    *int     `json:"temp"`
	Active  bool     `json:"active"`
}

// DetectAll discovers all disks of the system by inspecting
// /dev/disk/by-path, skipping partitions.
func DetectAll() []*Disk {
	return detectAllAt("/dev/disk/by-path", "/sys")
}

func detectAllAt(byPathDir string, sysBase string) []*Disk {
	var result []*Disk

	entries, err := os.ReadDir(byPathDir)
	if err != nil {
		ui.Warning("Cannot list %s: %v", byPathDir, err)
		return result
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	seenDevices := map[string]bool{}
	counters := map[string]int{}

	for _, name := range names {
		// partitions share the temperature of their parent device
		if strings.Contains(name, "part") {
			continue
		}

		linkPath := filepath.Join(byPathDir, name)
		realPath, err := filepath.EvalSymlinks(linkPath)
		if err != nil {
			ui.Debug("Cannot resolve %s: %v", linkPath, err)
			continue
		}
		device := filepath.Base(realPath)

		if seenDevices[device] {
			continue
		}
		seenDevices[device] = true

		var diskID string
		var diskType DiskType
		switch {
		case strings.Contains(name, "nvme"):
			counters["nvme"]++
			diskID = fmt.Sprintf("NVMe%d", counters["nvme"])
			diskType = DiskTypeNVMe
		case strings.Contains(name, "usb"):
			counters["usb"]++
			diskID = fmt.Sprintf("USB%d", counters["usb"])
			diskType = DiskTypeUSB
		case strings.Contains(name, "ata"):
			counters["ata"]++
			diskID = fmt.Sprintf("Disk%d", counters["ata"])
			diskType = DiskTypeHDD
			if isNonRotational(sysBase, device) {
				diskType = DiskTypeSSD
			}
		default:
			continue
		}

		model, serial, size := fetchDiskInfo(device)

		result = append(result, &Disk{
			ID:      diskID,
			Device:  device,
			Path:    realPath,
			PciPath: name,
			Model:   model,
			Serial:  serial,
			Size:    size,
			Type:    diskType,
		})
	}

	return result
}

func isNonRotational(sysBase string, device string) bool {
	rotational, err := util.ReadIntFromFile(fmt.Sprintf("%s/block/%s/queue/rotational", sysBase, device))
	return err == nil && rotational == 0
}
