package player

// Player carries only what the engine reads: the injury flag.
type Player struct {
	ID        string
	TeamID    string
	Name      string
	IsInjured bool
}
