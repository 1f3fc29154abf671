package agent

// Mode is the agent's current operating mode. It lives only in memory.
type Mode int

const (
	Booting Mode = iota
	FactoryResetting
	Provisioning
	Connected
)

func (m Mode) String() string {
	switch m {
	case Booting:
		return "booting"
	case FactoryResetting:
		return "factory_resetting"
	case Provisioning:
		return "provisioning"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}
