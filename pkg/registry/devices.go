package registry

import (
	"strings"

	"github.com/licorflow/licorflow/pkg/errors"
)

// Metadata is the instrument identity extracted from a log's header section.
type Metadata struct {
	DeviceSerial      string
	ConsoleVersion    string
	HeadSerial        string
	HeadVersion       string
	ChamberType       string
	ChamberSerial     string
	FluorometerSerial string
	CalibrationDate   string
}

// ValidateHeader checks that the header key-value pairs identify a log from
// the given device. The 6800 writes Bluestem console firmware identifiers;
// a header without them is some other instrument's file.
func ValidateHeader(device string, header map[string]string) error {
	switch device {
	case Device6800:
		for _, field := range []string{"Console s/n", "Console ver", "Head s/n"} {
			if _, ok := header[field]; !ok {
				return errors.New(errors.CodeInvalidHeader, "missing required header field").
					WithContext("field", field).
					WithContext("device", device)
			}
		}
		if ver := header["Console ver"]; !strings.Contains(ver, "Bluestem") {
			return errors.New(errors.CodeInvalidHeader, "header does not match device").
				WithContext("device", device).
				WithContext("console_ver", ver)
		}
		return nil
	default:
		return errors.New(errors.CodeInvalidHeader, "no header validation for device").
			WithContext("device", device)
	}
}

// ParseMetadata extracts instrument identity from a validated header.
func ParseMetadata(header map[string]string) Metadata {
	return Metadata{
		DeviceSerial:      header["Console s/n"],
		ConsoleVersion:    header["Console ver"],
		HeadSerial:        header["Head s/n"],
		HeadVersion:       header["Head ver"],
		ChamberType:       header["Chamber type"],
		ChamberSerial:     header["Chamber s/n"],
		FluorometerSerial: header["Fluorometer"],
		CalibrationDate:   header["Factory cal date"],
	}
}
