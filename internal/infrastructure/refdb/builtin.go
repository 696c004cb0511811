package refdb

// SourceBuiltin names the dataset compiled into the binary
const SourceBuiltin = "builtin"

// Builtin returns the tracker namespaces shipped with the binary. Malware
// signatures are distributed separately through the file, SQLite or Postgres
// sources.
func Builtin() Dataset {
	return Dataset{
		Source: SourceBuiltin,
		Trackers: []TrackerEntry{
			{Namespace: "com.appsflyer", Name: "AppsFlyer", RiskScore: 15},
			{Namespace: "com.adjust.sdk", Name: "Adjust", RiskScore: 15},
			{Namespace: "io.branch", Name: "Branch", RiskScore: 10},
			{Namespace: "com.mixpanel", Name: "Mixpanel", RiskScore: 10},
			{Namespace: "com.flurry", Name: "Flurry", RiskScore: 15},
			{Namespace: "com.amplitude", Name: "Amplitude", RiskScore: 10},
			{Namespace: "com.segment.analytics", Name: "Segment", RiskScore: 10},
			{Namespace: "com.facebook.ads", Name: "Facebook Audience Network", RiskScore: 20},
			{Namespace: "com.google.android.gms.ads", Name: "Google AdMob", RiskScore: 15},
			{Namespace: "com.unity3d.ads", Name: "Unity Ads", RiskScore: 15},
			{Namespace: "com.applovin", Name: "AppLovin", RiskScore: 20},
			{Namespace: "com.ironsource", Name: "ironSource", RiskScore: 20},
			{Namespace: "com.chartboost", Name: "Chartboost", RiskScore: 15},
			{Namespace: "com.inmobi", Name: "InMobi", RiskScore: 20},
			{Namespace: "com.startapp", Name: "Start.io", RiskScore: 20},
			{Namespace: "com.mopub", Name: "MoPub", RiskScore: 15},
			{Namespace: "com.onesignal", Name: "OneSignal", RiskScore: 10},
			{Namespace: "com.kochava", Name: "Kochava", RiskScore: 15},
		},
	}
}
