package spec

// Config carries the raw body, face, and joint data assembled by a loader
// before validation. The shape is deliberately loose; New is the gate that
// turns it into a trusted ModuleSpec.
type Config struct {
	ModuleName string
	MABody     string
	AXBody     string
	MBBody     string
	Faces      []FaceSpec
	Joints     []JointSpec
}

// New builds a validated ModuleSpec from raw data. On any invariant
// violation it returns the first ValidationError and no spec; a partially
// valid module is never produced.
func New(cfg Config) (*ModuleSpec, error) {
	m := &ModuleSpec{
		ModuleName: cfg.ModuleName,
		MABody:     cfg.MABody,
		AXBody:     cfg.AXBody,
		MBBody:     cfg.MBBody,
		Faces:      append([]FaceSpec(nil), cfg.Faces...),
		Joints:     append([]JointSpec(nil), cfg.Joints...),
	}
	if errs := Validate(m); len(errs) > 0 {
		return nil, errs[0]
	}
	return m, nil
}
