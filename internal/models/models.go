package models

// AllModels returns every model that needs migration, in dependency order
func AllModels() []interface{} {
	return []interface{}{
		&Session{},
		&FeatureSummary{},
		&Waveform{},
		&Job{},
	}
}
