package resolve

// Thresholds are the resolver's policy knobs. None of them is derived from
// data; deployments tune them through the tables file.
type Thresholds struct {
	Accept float64 `yaml:"accept" json:"accept"` // best score must exceed this to match
	Good   float64 `yaml:"good" json:"good"`     // below this a match carries suggestions

	ProviderMapping float64 `yaml:"provider_mapping" json:"provider_mapping"`
	ProgramMapping  float64 `yaml:"program_mapping" json:"program_mapping"`
	SessionMapping  float64 `yaml:"session_mapping" json:"session_mapping"`

	SubjectNameMatch float64 `yaml:"subject_name_match" json:"subject_name_match"`
	ProviderMatch    float64 `yaml:"provider_match" json:"provider_match"`
	ProgramMatch     float64 `yaml:"program_match" json:"program_match"`

	SubjectCodeWeight float64 `yaml:"subject_code_weight" json:"subject_code_weight"`
	SubjectNameWeight float64 `yaml:"subject_name_weight" json:"subject_name_weight"`
	ProviderWeight    float64 `yaml:"provider_weight" json:"provider_weight"`
	ProgramWeight     float64 `yaml:"program_weight" json:"program_weight"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Accept:            0.5,
		Good:              0.9,
		ProviderMapping:   0.6,
		ProgramMapping:    0.6,
		SessionMapping:    0.6,
		SubjectNameMatch:  0.7,
		ProviderMatch:     0.8,
		ProgramMatch:      0.8,
		SubjectCodeWeight: 0.4,
		SubjectNameWeight: 0.3,
		ProviderWeight:    0.3,
		ProgramWeight:     0.3,
	}
}

// withDefaults fills zero fields, so a tables file may override a subset.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&t.Accept, d.Accept)
	fill(&t.Good, d.Good)
	fill(&t.ProviderMapping, d.ProviderMapping)
	fill(&t.ProgramMapping, d.ProgramMapping)
	fill(&t.SessionMapping, d.SessionMapping)
	fill(&t.SubjectNameMatch, d.SubjectNameMatch)
	fill(&t.ProviderMatch, d.ProviderMatch)
	fill(&t.ProgramMatch, d.ProgramMatch)
	fill(&t.SubjectCodeWeight, d.SubjectCodeWeight)
	fill(&t.SubjectNameWeight, d.SubjectNameWeight)
	fill(&t.ProviderWeight, d.ProviderWeight)
	fill(&t.ProgramWeight, d.ProgramWeight)
	return t
}
