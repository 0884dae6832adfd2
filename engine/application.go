package engine

// FixedTimeStep is the interval of FnFixedUpdate, in seconds.
const FixedTimeStep float64 = 0.02

type ApplicationConfig struct {
	Config
	// Path of the TOML file Config was loaded from, if any.
	ConfigPath string
}

// LoadApplicationConfig loads path on top of the defaults.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &ApplicationConfig{Config: cfg, ConfigPath: path}, nil
}
