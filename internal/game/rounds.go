package game

// Round represents a phase of a hand
type Round int

const (
	Mus Round = iota
	Grande
	Chica
	Pares
	Juego
	Punto
	HandEnd
)

func (r Round) String() string {
	return [...]string{"MUS", "GRANDE", "CHICA", "PARES", "JUEGO", "PUNTO", "HAND_END"}[r]
}

// Phase distinguishes the sub-phase within a round
type Phase int

const (
	PhaseTurn Phase = iota
	PhaseDiscard
	PhaseDeclaration
	PhaseBetting
	PhaseFinished
)

func (p Phase) String() string {
	return [...]string{"turn", "discard", "declaration", "betting", "finished"}[p]
}

// Action represents a player action
type Action int

const (
	ActionMus Action = iota
	ActionPaso
	ActionEnvido
	ActionRaise
	ActionAccept
	ActionOrdago
	ActionDeclare
	ActionDiscard
)

func (a Action) String() string {
	return [...]string{"mus", "paso", "envido", "raise", "accept", "ordago", "declare", "discard"}[a]
}

// Declaration is a player's answer in the PARES/JUEGO declaration sub-phase
type Declaration int

const (
	DeclareNone Declaration = iota
	DeclareNo
	DeclareYes
	DeclarePuede
)

func (d Declaration) String() string {
	return [...]string{"none", "no", "yes", "puede"}[d]
}

// TeamID identifies one of the two fixed teams. Players 0 and 2 are team 1,
// players 1 and 3 are team 2.
type TeamID int

const (
	Team1 TeamID = iota
	Team2
)

func (t TeamID) String() string {
	return [...]string{"team1", "team2"}[t]
}

// Opponent returns the other team
func (t TeamID) Opponent() TeamID {
	return 1 - t
}

// TeamOf returns the team a seat belongs to
func TeamOf(playerIndex int) TeamID {
	return TeamID(playerIndex % 2)
}

// Teammate returns the other member of a seat's team
func Teammate(playerIndex int) int {
	return (playerIndex + 2) % 4
}

// NextPlayer returns the next seat in counter-clockwise turn order
func NextPlayer(playerIndex int) int {
	return (playerIndex + 3) % 4
}

// BetType distinguishes a normal envido from an all-in órdago
type BetType int

const (
	BetEnvido BetType = iota
	BetOrdago
)

func (b BetType) String() string {
	return [...]string{"envido", "ordago"}[b]
}
