package services_test

import (
	"testing"
	"time"

	"game-economy-service/models"
	"game-economy-service/services"
	"game-economy-service/testutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newSeasonFixture(t *testing.T) (*gorm.DB, *services.SeasonService, *services.LedgerService) {
	t.Helper()
	db := testutil.NewTestDB(t)
	ledger := services.NewLedgerService(db)
	inventory := services.NewInventoryService(db)
	milestones := services.NewMilestoneService(db, services.NewEventBroker())
	seasons := services.NewSeasonService(db, ledger, inventory, milestones, services.NewEventBroker())
	return db, seasons, ledger
}

type tierSpec struct {
	xpRequired   int64
	rewardAmount int64
	premium      bool
	rewardItemID *string
}

func seedSeason(t *testing.T, db *gorm.DB, passPrice int64, tiers ...tierSpec) string {
	t.Helper()
	season := models.Season{
		Name:            "Test Season " + uuid.NewString()[:8],
		StartsAt:        time.Now().Add(-time.Hour),
		EndsAt:          time.Now().Add(30 * 24 * time.Hour),
		BattlePassPrice: passPrice,
	}
	if err := db.Create(&season).Error; err != nil {
		t.Fatalf("seed season: %v", err)
	}
	for i, spec := range tiers {
		tier := models.SeasonTier{
			SeasonID:     season.ID,
			TierNumber:   i + 1,
			XPRequired:   spec.xpRequired,
			RewardType:   models.SeasonRewardCurrency,
			RewardAmount: spec.rewardAmount,
			IsPremium:    spec.premium,
		}
		if spec.rewardItemID != nil {
			tier.RewardType = models.SeasonRewardItem
			tier.RewardItemID = spec.rewardItemID
			tier.RewardAmount = 1
		}
		if err := db.Create(&tier).Error; err != nil {
			t.Fatalf("seed tier %d: %v", i+1, err)
		}
	}
	return season.ID
}

func TestAwardXPCreatesProgressionAndRollsOver(t *testing.T) {
	db, seasons, _ := newSeasonFixture(t)

	gameID := uuid.NewString()
	alice := testutil.SeedCompetitor(t, db, gameID, 0)
	seasonID := seedSeason(t, db, 0,
		tierSpec{xpRequired: 100, rewardAmount: 10},
		tierSpec{xpRequired: 150, rewardAmount: 20},
		tierSpec{xpRequired: 200, rewardAmount: 30},
	)

	result, err := seasons.AwardXP(alice, seasonID, 300, "match_win")
	if err != nil {
		t.Fatalf("award xp: %v", err)
	}
	if !result.TieredUp {
		t.Error("expected a tier up")
	}
	if result.Progression.CurrentTier != 2 || result.Progression.CurrentXP != 50 {
		t.Errorf("progression = tier %d xp %d, want tier 2 xp 50",
			result.Progression.CurrentTier, result.Progression.CurrentXP)
	}
	if len(result.TierUpRewards) != 2 {
		t.Errorf("crossed %d tiers, want 2", len(result.TierUpRewards))
	}

	// Second award continues from the stored state.
	result, err = seasons.AwardXP(alice, seasonID, 150, "match_win")
	if err != nil {
		t.Fatalf("award xp: %v", err)
	}
	if result.Progression.CurrentTier != 3 || result.Progression.CurrentXP != 0 {
		t.Errorf("progression = tier %d xp %d, want tier 3 xp 0",
			result.Progression.CurrentTier, result.Progression.CurrentXP)
	}

	var history int64
	db.Model(&models.SeasonXpHistory{}).Count(&history)
	if history != 2 {
		t.Errorf("got %d history rows, want 2", history)
	}
}

func TestAwardXPRejectsNonPositiveAmount(t *testing.T) {
	db, seasons, _ := newSeasonFixture(t)

	gameID := uuid.NewString()
	alice := testutil.SeedCompetitor(t, db, gameID, 0)
	seasonID := seedSeason(t, db, 0, tierSpec{xpRequired: 100, rewardAmount: 10})

	_, err := seasons.AwardXP(alice, seasonID, 0, "noop")
	de, ok := services.AsDomain(err)
	if !ok || de.Code != services.CodeInvalidAmount {
		t.Fatalf("err = %v, want %s", err, services.CodeInvalidAmount)
	}
}

func TestClaimRewardIsIdempotent(t *testing.T) {
	db, seasons, ledger := newSeasonFixture(t)

	gameID := uuid.NewString()
	alice := testutil.SeedCompetitor(t, db, gameID, 0)
	seasonID := seedSeason(t, db, 0, tierSpec{xpRequired: 100, rewardAmount: 250})

	if _, err := seasons.AwardXP(alice, seasonID, 100, "match_win"); err != nil {
		t.Fatalf("award xp: %v", err)
	}

	tier, err := seasons.ClaimReward(alice, seasonID, 1)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if tier.RewardAmount != 250 {
		t.Errorf("claimed tier reward = %d, want 250", tier.RewardAmount)
	}

	_, err = seasons.ClaimReward(alice, seasonID, 1)
	de, ok := services.AsDomain(err)
	if !ok || de.Code != services.CodeAlreadyClaimed {
		t.Fatalf("second claim err = %v, want %s", err, services.CodeAlreadyClaimed)
	}

	// The reward was paid exactly once.
	bal, _ := ledger.GetBalance(alice)
	if bal.Balance != 250 {
		t.Errorf("balance = %d, want 250", bal.Balance)
	}
}

func TestClaimRewardTierNotReached(t *testing.T) {
	db, seasons, _ := newSeasonFixture(t)

	gameID := uuid.NewString()
	alice := testutil.SeedCompetitor(t, db, gameID, 0)
	seasonID := seedSeason(t, db, 0,
		tierSpec{xpRequired: 100, rewardAmount: 10},
		tierSpec{xpRequired: 100, rewardAmount: 20},
	)

	// No progression row at all.
	_, err := seasons.ClaimReward(alice, seasonID, 1)
	de, ok := services.AsDomain(err)
	if !ok || de.Code != services.CodeTierNotReached {
		t.Fatalf("err = %v, want %s", err, services.CodeTierNotReached)
	}

	if _, err := seasons.AwardXP(alice, seasonID, 100, "match_win"); err != nil {
		t.Fatalf("award xp: %v", err)
	}

	// At tier 1, tier 2 is out of reach; so is a tier the catalog never defined.
	for _, tierNumber := range []int{2, 99} {
		_, err := seasons.ClaimReward(alice, seasonID, tierNumber)
		de, ok := services.AsDomain(err)
		if !ok || de.Code != services.CodeTierNotReached {
			t.Errorf("tier %d: err = %v, want %s", tierNumber, err, services.CodeTierNotReached)
		}
	}
}

func TestPremiumTierRequiresBattlePass(t *testing.T) {
	db, seasons, ledger := newSeasonFixture(t)

	gameID := uuid.NewString()
	alice := testutil.SeedCompetitor(t, db, gameID, 1000)
	seasonID := seedSeason(t, db, 400, tierSpec{xpRequired: 100, rewardAmount: 50, premium: true})

	if _, err := seasons.AwardXP(alice, seasonID, 100, "match_win"); err != nil {
		t.Fatalf("award xp: %v", err)
	}

	_, err := seasons.ClaimReward(alice, seasonID, 1)
	de, ok := services.AsDomain(err)
	if !ok || de.Code != services.CodeBattlePassRequired {
		t.Fatalf("err = %v, want %s", err, services.CodeBattlePassRequired)
	}

	prog, err := seasons.PurchaseBattlePass(alice, seasonID, 400)
	if err != nil {
		t.Fatalf("purchase pass: %v", err)
	}
	if !prog.HasBattlePass {
		t.Error("has_battle_pass not set")
	}

	if _, err := seasons.ClaimReward(alice, seasonID, 1); err != nil {
		t.Fatalf("claim after purchase: %v", err)
	}

	// 1000 - 400 pass + 50 reward
	bal, _ := ledger.GetBalance(alice)
	if bal.Balance != 650 {
		t.Errorf("balance = %d, want 650", bal.Balance)
	}
}

func TestPurchaseBattlePassGuards(t *testing.T) {
	db, seasons, ledger := newSeasonFixture(t)

	gameID := uuid.NewString()
	rich := testutil.SeedCompetitor(t, db, gameID, 1000)
	poor := testutil.SeedCompetitor(t, db, gameID, 10)
	seasonID := seedSeason(t, db, 400, tierSpec{xpRequired: 100, rewardAmount: 10})

	if _, err := seasons.PurchaseBattlePass(rich, seasonID, 400); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	_, err := seasons.PurchaseBattlePass(rich, seasonID, 400)
	de, ok := services.AsDomain(err)
	if !ok || de.Code != services.CodeAlreadyPurchased {
		t.Fatalf("double purchase err = %v, want %s", err, services.CodeAlreadyPurchased)
	}
	bal, _ := ledger.GetBalance(rich)
	if bal.Balance != 600 {
		t.Errorf("balance = %d, want 600 (charged once)", bal.Balance)
	}

	// A failed debit never grants the pass.
	_, err = seasons.PurchaseBattlePass(poor, seasonID, 400)
	de, ok = services.AsDomain(err)
	if !ok || de.Code != services.CodeInsufficientFunds {
		t.Fatalf("poor purchase err = %v, want %s", err, services.CodeInsufficientFunds)
	}
	prog, _, perr := seasons.GetProgression(poor, seasonID)
	if perr != nil {
		t.Fatalf("get progression: %v", perr)
	}
	if prog.HasBattlePass {
		t.Error("pass granted despite failed debit")
	}
}

func TestClaimRewardItemGoesToInventory(t *testing.T) {
	db, seasons, _ := newSeasonFixture(t)

	gameID := uuid.NewString()
	alice := testutil.SeedCompetitor(t, db, gameID, 0)
	itemID := uuid.NewString()
	seasonID := seedSeason(t, db, 0, tierSpec{xpRequired: 100, rewardItemID: &itemID})

	if _, err := seasons.AwardXP(alice, seasonID, 100, "match_win"); err != nil {
		t.Fatalf("award xp: %v", err)
	}
	if _, err := seasons.ClaimReward(alice, seasonID, 1); err != nil {
		t.Fatalf("claim: %v", err)
	}

	var entry models.InventoryEntry
	if err := db.Where("competitor_id = ? AND item_id = ?", alice, itemID).First(&entry).Error; err != nil {
		t.Fatalf("reward item missing from inventory: %v", err)
	}
	if entry.Quantity != 1 {
		t.Errorf("reward quantity = %d, want 1", entry.Quantity)
	}
}

func TestGetProgressionWithoutRowReadsAsZero(t *testing.T) {
	db, seasons, _ := newSeasonFixture(t)

	gameID := uuid.NewString()
	alice := testutil.SeedCompetitor(t, db, gameID, 0)
	seasonID := seedSeason(t, db, 0, tierSpec{xpRequired: 100, rewardAmount: 10})

	prog, claimed, err := seasons.GetProgression(alice, seasonID)
	if err != nil {
		t.Fatalf("get progression: %v", err)
	}
	if prog.CurrentTier != 0 || prog.CurrentXP != 0 || prog.HasBattlePass {
		t.Errorf("unexpected zero progression: %+v", prog)
	}
	if len(claimed) != 0 {
		t.Errorf("got %d claims, want 0", len(claimed))
	}

	// Reading must not create a row.
	var count int64
	db.Model(&models.SeasonProgression{}).Count(&count)
	if count != 0 {
		t.Errorf("read created %d progression rows", count)
	}
}
