package models

import (
	"time"
)

// ExportedReceiver is a broadcast receiver exported by a package
type ExportedReceiver struct {
	Name       string `json:"name"`
	Permission string `json:"permission,omitempty"`
}

// PackageRecord is the metadata the package provider supplies for one
// installed package
type PackageRecord struct {
	PackageName      string             `json:"package_name"`
	Label            string             `json:"label"`
	VersionName      string             `json:"version_name,omitempty"`
	Permissions      []string           `json:"permissions"`
	Certificates     [][]byte           `json:"certificates"` // DER encoded
	FirstInstallTime time.Time          `json:"first_install_time"`
	SourceDir        string             `json:"source_dir"`
	Receivers        []ExportedReceiver `json:"receivers,omitempty"`
	Installer        string             `json:"installer,omitempty"`
}

// DeviceInfo is a snapshot of the audited device
type DeviceInfo struct {
	Manufacturer  string `json:"manufacturer"`
	Model         string `json:"model"`
	OSVersion     string `json:"os_version"`
	SDKLevel      int    `json:"sdk_level"`
	SecurityPatch string `json:"security_patch"`
}
