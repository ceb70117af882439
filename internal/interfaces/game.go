package interfaces

import "github.com/user/quiet-dominion/internal/types"

// Engine defines the interface for game simulation operations
type Engine interface {
	StartGame()
	CompleteIntro()
	Tick()
	State() *types.GameState

	BuildStructure(structureID string) error
	CanAffordStructure(structureID string) bool

	TryTriggerEvent() string
	ResolveEvent(choiceIndex int) (string, error)

	CanExploreTerritory(territoryID string) bool
	StartExpedition(territoryID string) error
	ExpeditionProgress() float64

	UnlockAdvisor(advisorID string) error
	UpdateAdvisorRelation(advisorID string, delta int) error

	DiscoverLore(loreID string) error
	AcknowledgeLore(loreID string)
	SetPath(pathID string) error

	PrestigeRequirements() types.PrestigeStatus
	EligibleEndings() []string
	LegacyPointsPreview(endingID string) int
	Prestige(endingID string) (int, error)
	PurchaseLegacyUpgrade(upgradeID string) error

	AddNotification(kind, message string, durationMs int) string
	DismissNotification(id string)

	SaveGame() error
	LoadGame() bool
}
