package systems

type SystemManagerConfig struct {
	Workers   int
	QueueSize int
}

// SystemManager owns the background systems the engine starts and stops.
type SystemManager struct {
	jobSystem *JobSystem
}

func NewSystemManager(cfg SystemManagerConfig) (*SystemManager, error) {
	js, err := NewJobSystem(cfg.Workers, cfg.QueueSize)
	if err != nil {
		return nil, err
	}
	return &SystemManager{jobSystem: js}, nil
}

func (sm *SystemManager) JobSystem() *JobSystem {
	return sm.jobSystem
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.jobSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
