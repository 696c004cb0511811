package models

// Locale selects a presentation table
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleSpanish Locale = "es"
)

// Presentation maps enum values to display labels for one locale. The enums
// themselves carry no display text.
type Presentation struct {
	Risks          map[Risk]string
	InstallSources map[InstallSource]string
}

var presentations = map[Locale]Presentation{
	LocaleEnglish: {
		Risks: map[Risk]string{
			RiskCritical: "CRITICAL",
			RiskHigh:     "HIGH",
			RiskMedium:   "MEDIUM",
			RiskLow:      "LOW",
		},
		InstallSources: map[InstallSource]string{
			InstallSourcePlayStore: "Google Play",
			InstallSourceAmazon:    "Amazon Appstore",
			InstallSourceSamsung:   "Galaxy Store",
			InstallSourceADB:       "ADB / Developer",
			InstallSourceSystem:    "System",
			InstallSourceUnknown:   "Unknown",
			InstallSourceSideload:  "Manual install",
		},
	},
	LocaleSpanish: {
		Risks: map[Risk]string{
			RiskCritical: "CRÍTICO",
			RiskHigh:     "ALTO",
			RiskMedium:   "MEDIO",
			RiskLow:      "BAJO",
		},
		InstallSources: map[InstallSource]string{
			InstallSourcePlayStore: "Google Play",
			InstallSourceAmazon:    "Amazon Appstore",
			InstallSourceSamsung:   "Galaxy Store",
			InstallSourceADB:       "ADB / Desarrollador",
			InstallSourceSystem:    "Sistema",
			InstallSourceUnknown:   "Desconocido",
			InstallSourceSideload:  "Instalación manual",
		},
	},
}

// PresentationFor returns the table for a locale, falling back to English
func PresentationFor(locale Locale) Presentation {
	if p, ok := presentations[locale]; ok {
		return p
	}
	return presentations[LocaleEnglish]
}

// RiskLabel returns the display label of a tier
func (p Presentation) RiskLabel(r Risk) string {
	if label, ok := p.Risks[r]; ok {
		return label
	}
	return string(r)
}

// InstallSourceLabel returns the display label of an install source
func (p Presentation) InstallSourceLabel(s InstallSource) string {
	if label, ok := p.InstallSources[s]; ok {
		return label
	}
	return string(s)
}
