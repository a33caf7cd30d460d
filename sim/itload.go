package sim

// kWToBTUPerHour converts electrical power to heat rejection rate.
const kWToBTUPerHour = 3412.14

// ITLoadState is the IT power draw for one step.
type ITLoadState struct {
	BaseKW         float64 `json:"base_kw"`
	FlexKW         float64 `json:"flex_kw"`
	TotalITKW      float64 `json:"total_it_kw"`
	Utilization    float64 `json:"utilization"` // TotalITKW over installed capacity, [0,1]
	PerServerW     float64 `json:"per_server_w"`
	HeatBTUPerHour float64 `json:"heat_btu_per_hour"` // all IT power becomes heat
}

// ITLoadModel converts a flexible-workload set-point into IT power.
// Base load is never reduced: only the flexible share is elastic.
// Stateless: capacities are read from static configuration.
type ITLoadModel struct {
	cfg ITLoadConfig
}

// NewITLoadModel creates an ITLoadModel over fixed capacities.
func NewITLoadModel(cfg ITLoadConfig) *ITLoadModel {
	return &ITLoadModel{cfg: cfg}
}

// FlexCapacityKW returns the configured flexible capacity.
func (m *ITLoadModel) FlexCapacityKW() float64 { return m.cfg.FlexCapacityKW }

// BaseCapacityKW returns the configured base capacity.
func (m *ITLoadModel) BaseCapacityKW() float64 { return m.cfg.BaseCapacityKW }

// PowerFor returns the IT load for a flex fraction in [0,1]. Out-of-range
// fractions are rejected; callers clamp controller output first.
func (m *ITLoadModel) PowerFor(flexFraction float64) (ITLoadState, error) {
	if err := checkFraction("flex_fraction", flexFraction); err != nil {
		return ITLoadState{}, err
	}
	base := m.cfg.BaseCapacityKW * m.cfg.BaseUtilization
	flex := m.cfg.FlexCapacityKW * flexFraction
	total := base + flex

	st := ITLoadState{
		BaseKW:         base,
		FlexKW:         flex,
		TotalITKW:      total,
		HeatBTUPerHour: total * kWToBTUPerHour,
	}
	if capacity := m.cfg.BaseCapacityKW + m.cfg.FlexCapacityKW; capacity > 0 {
		st.Utilization = clamp(total/capacity, 0, 1)
	}
	if m.cfg.NumServers > 0 {
		st.PerServerW = total * 1000 / float64(m.cfg.NumServers)
	}
	return st, nil
}
