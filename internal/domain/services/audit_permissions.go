package services

import (
	"strings"

	"guardian-audit/internal/domain/models"
)

// dangerousPermissionKeywords classify a requested permission as dangerous
// when the permission string contains any of them (case-sensitive).
var dangerousPermissionKeywords = []string{
	"CAMERA",
	"LOCATION",
	"FINE_LOCATION",
	"COARSE_LOCATION",
	"RECORD_AUDIO",
	"READ_CONTACTS",
	"WRITE_CONTACTS",
	"READ_SMS",
	"SEND_SMS",
	"RECEIVE_SMS",
	"READ_PHONE_STATE",
	"CALL_PHONE",
	"READ_CALL_LOG",
	"WRITE_CALL_LOG",
	"READ_CALENDAR",
	"WRITE_CALENDAR",
	"BODY_SENSORS",
	"READ_EXTERNAL_STORAGE",
	"WRITE_EXTERNAL_STORAGE",
	"ACCESS_MEDIA_LOCATION",
	"BLUETOOTH",
	"NEARBY_WIFI",
	"POST_NOTIFICATIONS",
	"REQUEST_INSTALL_PACKAGES",
	"SYSTEM_ALERT_WINDOW",
	"WRITE_SETTINGS",
}

// permissionCombo is a set of capabilities that together indicate a
// malware family. Every keyword must match at least one permission.
type permissionCombo struct {
	id       string
	title    string
	keywords []string
	weight   int
}

var permissionCombos = []permissionCombo{
	{
		id:       FindingComboSurveillance,
		title:    "Surveillance capability",
		keywords: []string{"CAMERA", "RECORD_AUDIO", "LOCATION"},
		weight:   35,
	},
	{
		id:       FindingComboCommunications,
		title:    "Communications interception",
		keywords: []string{"READ_SMS", "READ_CONTACTS", "CALL_PHONE"},
		weight:   30,
	},
	{
		id:       FindingComboRansomware,
		title:    "Ransomware capability",
		keywords: []string{"WRITE_EXTERNAL", "INTERNET", "REQUEST_INSTALL"},
		weight:   30,
	},
	{
		id:       FindingComboBankingTrojan,
		title:    "Banking trojan capability",
		keywords: []string{"SYSTEM_ALERT_WINDOW", "READ_SMS", "INTERNET"},
		weight:   35,
	},
}

// IsDangerousPermission reports whether a permission grants access to
// sensitive data or device capabilities
func IsDangerousPermission(permission string) bool {
	for _, keyword := range dangerousPermissionKeywords {
		if strings.Contains(permission, keyword) {
			return true
		}
	}
	return false
}

// classifyPermissions converts requested permission strings into
// AppPermission values, preserving order
func classifyPermissions(requested []string) []models.AppPermission {
	permissions := make([]models.AppPermission, 0, len(requested))
	for _, name := range requested {
		permissions = append(permissions, models.AppPermission{
			Name:      name,
			Dangerous: IsDangerousPermission(name),
		})
	}
	return permissions
}

func countDangerous(permissions []models.AppPermission) int {
	count := 0
	for _, p := range permissions {
		if p.Dangerous {
			count++
		}
	}
	return count
}

// hasPermissionMatching reports whether any permission contains the keyword
func hasPermissionMatching(permissions []string, keyword string) bool {
	for _, p := range permissions {
		if strings.Contains(p, keyword) {
			return true
		}
	}
	return false
}

// checkPermissionCombos returns one finding per combination fully present
func checkPermissionCombos(permissions []string) []models.AuditFinding {
	var findings []models.AuditFinding
	for _, combo := range permissionCombos {
		matched := true
		for _, keyword := range combo.keywords {
			if !hasPermissionMatching(permissions, keyword) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		findings = append(findings, models.AuditFinding{
			ID:          combo.id,
			Title:       combo.title,
			Description: "Requests " + strings.Join(combo.keywords, " + "),
			Weight:      combo.weight,
		})
	}
	return findings
}
