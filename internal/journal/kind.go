package journal

// Kind is the value of a record's "event" discriminator.
//
// The constants below are the closed set of kinds the engine folds. Any
// other value is still a valid Kind; it simply has no handler.
type Kind string

const (
	// Commander and inventory.
	KindCommander         Kind = "Commander"
	KindLoadGame          Kind = "LoadGame"
	KindLoadout           Kind = "Loadout"
	KindShipyardSwap      Kind = "ShipyardSwap"
	KindMaterials         Kind = "Materials"
	KindMaterialCollected Kind = "MaterialCollected"
	KindMaterialDiscarded Kind = "MaterialDiscarded"
	KindShipLocker        Kind = "ShipLocker"
	KindCargo             Kind = "Cargo"
	KindModuleBuy         Kind = "ModuleBuy"

	// System arrival and jumps.
	KindLocation    Kind = "Location"
	KindFSDJump     Kind = "FSDJump"
	KindCarrierJump Kind = "CarrierJump"
	KindStartJump   Kind = "StartJump"

	// Exploration.
	KindScan                     Kind = "Scan"
	KindSAAScanComplete          Kind = "SAAScanComplete"
	KindFSSDiscoveryScan         Kind = "FSSDiscoveryScan"
	KindFSSAllBodiesFound        Kind = "FSSAllBodiesFound"
	KindFSSSignalDiscovered      Kind = "FSSSignalDiscovered"
	KindFSSBodySignals           Kind = "FSSBodySignals"
	KindSAASignalsFound          Kind = "SAASignalsFound"
	KindMultiSellExplorationData Kind = "MultiSellExplorationData"
	KindSellExplorationData      Kind = "SellExplorationData"

	// Exobiology.
	KindScanOrganic     Kind = "ScanOrganic"
	KindCodexEntry      Kind = "CodexEntry"
	KindSellOrganicData Kind = "SellOrganicData"

	// PowerPlay.
	KindPowerplay       Kind = "Powerplay"
	KindPowerplayJoin   Kind = "PowerplayJoin"
	KindPowerplayLeave  Kind = "PowerplayLeave"
	KindPowerplayDefect Kind = "PowerplayDefect"
	KindPowerplayRank   Kind = "PowerplayRank"
	KindPowerplayMerits Kind = "PowerplayMerits"

	// Everything else the engine understands.
	KindShipTargeted         Kind = "ShipTargeted"
	KindRedeemVoucher        Kind = "RedeemVoucher"
	KindCommunityGoal        Kind = "CommunityGoal"
	KindCommunityGoalJoin    Kind = "CommunityGoalJoin"
	KindCommunityGoalReward  Kind = "CommunityGoalReward"
	KindCommunityGoalDiscard Kind = "CommunityGoalDiscard"
)

// IsSystemBoundary reports whether k marks login within, or arrival in, a
// star system. Bootstrap anchors on the last such record.
func IsSystemBoundary(k Kind) bool {
	switch k {
	case KindLocation, KindFSDJump, KindCarrierJump:
		return true
	}
	return false
}
