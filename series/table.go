package series

// NewTable validates in and returns its read-only Table.
// The input slices are copied; later mutation of in does not affect the Table.
func NewTable(in Inputs) (*Table, error) {
	n, err := in.Validate()
	if err != nil {
		return nil, err
	}

	rows := make([]Record, n)
	for i := 0; i < n; i++ {
		r := Record{
			Period:  Period(i + 1),
			Inflow:  in.Inflow[i],
			Outflow: in.Outflow[i],
		}
		for _, s := range Sectors {
			r.Demand[s] = in.Demand[s][i]
		}
		if in.MinEnvFlow != nil {
			r.MinEnvFlow = in.MinEnvFlow[i]
		}
		if in.Evaporation != nil {
			r.Evaporation = in.Evaporation[i]
		}
		if in.Precipitation != nil {
			r.Precipitation = in.Precipitation[i]
		}
		rows[i] = r
	}

	return &Table{
		rows:           rows,
		capacity:       in.Capacity,
		initialStorage: in.InitialStorage,
		minStorage:     in.MinStorage,
		hasEnvFlow:     in.MinEnvFlow != nil,
	}, nil
}

// Horizon returns N, the number of periods.
func (t *Table) Horizon() int { return len(t.rows) }

// Capacity returns the reservoir capacity K.
func (t *Table) Capacity() float64 { return t.capacity }

// InitialStorage returns S[0].
func (t *Table) InitialStorage() float64 { return t.initialStorage }

// MinStorage returns the storage floor S_min.
func (t *Table) MinStorage() float64 { return t.minStorage }

// HasEnvFlow reports whether a minimum environmental-flow column was supplied.
func (t *Table) HasEnvFlow() bool { return t.hasEnvFlow }

// At returns the record of period p.
func (t *Table) At(p Period) (Record, error) {
	if p < 1 || int(p) > len(t.rows) {
		return Record{}, ErrPeriodOutOfRange
	}

	return t.rows[p-1], nil
}

// Records returns a copy of all records in period order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.rows))
	copy(out, t.rows)

	return out
}

// Demand returns the demand column of sector s in period order.
func (t *Table) Demand(s Sector) []float64 {
	out := make([]float64, len(t.rows))
	for i := range t.rows {
		out[i] = t.rows[i].Demand[s]
	}

	return out
}

// Inputs rebuilds the raw columns the Table was created from.
func (t *Table) Inputs() Inputs {
	n := len(t.rows)
	in := Inputs{
		Inflow:         make([]float64, n),
		Outflow:        make([]float64, n),
		Capacity:       t.capacity,
		InitialStorage: t.initialStorage,
		MinStorage:     t.minStorage,
	}
	for _, s := range Sectors {
		in.Demand[s] = make([]float64, n)
	}
	var evap, precip bool
	for _, r := range t.rows {
		evap = evap || r.Evaporation != 0
		precip = precip || r.Precipitation != 0
	}
	if t.hasEnvFlow {
		in.MinEnvFlow = make([]float64, n)
	}
	if evap {
		in.Evaporation = make([]float64, n)
	}
	if precip {
		in.Precipitation = make([]float64, n)
	}
	for i, r := range t.rows {
		in.Inflow[i] = r.Inflow
		in.Outflow[i] = r.Outflow
		for _, s := range Sectors {
			in.Demand[s][i] = r.Demand[s]
		}
		if in.MinEnvFlow != nil {
			in.MinEnvFlow[i] = r.MinEnvFlow
		}
		if in.Evaporation != nil {
			in.Evaporation[i] = r.Evaporation
		}
		if in.Precipitation != nil {
			in.Precipitation[i] = r.Precipitation
		}
	}

	return in
}
