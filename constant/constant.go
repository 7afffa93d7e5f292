package constant

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

// EntityType names the owning entities whose deletion cascades to every
// recording they own.
type EntityType string

const (
	EntityUser         EntityType = "user"
	EntityParticipant  EntityType = "participant"
	EntityVocalization EntityType = "vocalization"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

const ContentTypeWAV = "audio/wav"
