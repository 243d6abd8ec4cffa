package domain

// SystemActorName identifies operations performed by local tooling.
const SystemActorName = "system"

// Actor is the identity on whose behalf an operation runs.
type Actor struct {
	Name    string
	IsAdmin bool
}

// SystemActor returns the privileged actor used by the command line tools.
func SystemActor() Actor {
	return Actor{Name: SystemActorName, IsAdmin: true}
}
