package inspect

// KeyValue is an ordered metadata entry.
type KeyValue struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Feature is a named model input, output or state.
type Feature struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string  `json:"type" yaml:"type"`
	Summary     string  `json:"summary,omitempty" yaml:"summary,omitempty"`
	DataType    string  `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	Shape       []int64 `json:"shape,omitempty" yaml:"shape,omitempty,flow"`
	Optional    bool    `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Report describes one inspected model.
type Report struct {
	Path     string     `json:"path" yaml:"path"`
	Format   Format     `json:"format" yaml:"format"`
	Spec     string     `json:"spec,omitempty" yaml:"spec,omitempty"`
	Metadata []KeyValue `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Inputs   []Feature  `json:"inputs" yaml:"inputs"`
	Outputs  []Feature  `json:"outputs" yaml:"outputs"`
	States   []Feature  `json:"states,omitempty" yaml:"states,omitempty"`
	Details  []KeyValue `json:"details,omitempty" yaml:"details,omitempty"`
	Size     int64      `json:"size" yaml:"size"`
	Checksum string     `json:"sha256,omitempty" yaml:"sha256,omitempty"`
}

// Result pairs a path with its report or error.
type Result struct {
	Path   string
	Report *Report
	Err    error
}

func (r *Report) addDetail(key, value string) {
	if value == "" {
		return
	}
	r.Details = append(r.Details, KeyValue{Key: key, Value: value})
}
