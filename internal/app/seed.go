package app

import (
	"context"
	"fmt"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/google/uuid"
)

var (
	SeedOperatorID   = uuid.MustParse("6d1f2b3a-0c4e-4a59-9f7e-1a2b3c4d5e01")
	SeedAdminID      = uuid.MustParse("6d1f2b3a-0c4e-4a59-9f7e-1a2b3c4d5e02")
	SeedRoomPharaoh  = uuid.MustParse("6d1f2b3a-0c4e-4a59-9f7e-1a2b3c4d5e11")
	SeedRoomAsylum   = uuid.MustParse("6d1f2b3a-0c4e-4a59-9f7e-1a2b3c4d5e12")
	seedPassword     = "P@ssword123"
	seedOperatorMail = "operator@unlocked.test"
	seedAdminMail    = "admin@unlocked.test"
)

// SeedAllTestData creates a demo operator, an admin and two rooms. Rows that
// already exist are left alone.
func SeedAllTestData(ctx context.Context, operators repositories.OperatorRepository, rooms repositories.RoomRepository) error {
	if err := seedOperator(ctx, operators, SeedOperatorID, seedOperatorMail, models.OperatorRoleOperator); err != nil {
		return err
	}
	if err := seedOperator(ctx, operators, SeedAdminID, seedAdminMail, models.OperatorRoleAdmin); err != nil {
		return err
	}

	for _, r := range demoRooms() {
		existing, err := rooms.GetByID(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("check room %s: %w", r.ID, err)
		}
		if existing != nil {
			utils.Logger.Infof("Room %q already exists; skipping seed.", r.Title)
			continue
		}
		if err := rooms.Create(ctx, r); err != nil {
			return fmt.Errorf("seed room %q: %w", r.Title, err)
		}
		utils.Logger.Infof("Seeded room %q (ID=%s)", r.Title, r.ID)
	}
	return nil
}

func seedOperator(ctx context.Context, operators repositories.OperatorRepository, id uuid.UUID, email string, role models.OperatorRole) error {
	existing, err := operators.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error checking for existing operator: %w", err)
	}
	if existing != nil {
		utils.Logger.Infof("Operator %s already exists; skipping seed.", email)
		return nil
	}

	hash, err := utils.HashPassword(seedPassword)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}
	if err := operators.Create(ctx, &models.Operator{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}); err != nil {
		return fmt.Errorf("failed to insert operator %s: %w", email, err)
	}
	utils.Logger.Infof("Seeded %s %s", role, email)
	return nil
}

func demoRooms() []*models.Room {
	return []*models.Room{
		{
			ID:            SeedRoomPharaoh,
			OperatorID:    SeedOperatorID,
			Title:         "Curse of the Pharaoh",
			Active:        true,
			MinPlayers:    2,
			MaxPlayers:    6,
			Price:         25,
			PricePerGroup: []models.GroupPrice{{Players: 2, Price: 60}, {Players: 4, Price: 100}},
			OperatingDays: []int16{0, 1, 2, 3, 4, 5, 6},
			DefaultSlots: []models.SlotTemplate{
				{Time: "10:00", Price: 25}, {Time: "12:00", Price: 25},
				{Time: "18:00", Price: 30}, {Time: "20:00", Price: 30}, {Time: "22:00", Price: 30},
			},
			OverflowSlot: &models.OverflowSlot{Time: "00:30", Price: 35, Days: []int16{5, 6}},
			TimeZone:     "Europe/Athens",
		},
		{
			ID:            SeedRoomAsylum,
			OperatorID:    SeedOperatorID,
			Title:         "Asylum",
			Active:        true,
			MinPlayers:    3,
			MaxPlayers:    8,
			Price:         35.99,
			OperatingDays: []int16{3, 4, 5, 6},
			DefaultSlots: []models.SlotTemplate{
				{Time: "19:00", Price: 35.99}, {Time: "21:00", Price: 35.99}, {Time: "23:00", Price: 35.99},
			},
			TimeZone: "Europe/Athens",
		},
	}
}
