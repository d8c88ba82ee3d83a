package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
	vehicledomain "github.com/motorlane/motorlane/internal/vehicle/domain"
	"gorm.io/gorm"
)

const (
	defaultWorkshopName  = "Main Street Motors"
	defaultWorkshopEmail = "shop@motorlane.local"
	defaultOwnerName     = "Dev Owner"
	defaultOwnerEmail    = "owner@motorlane.local"
	defaultMechanicName  = "Dev Mechanic"
	defaultMechanicEmail = "mechanic@motorlane.local"
	defaultAdminName     = "Dev Admin"
	defaultAdminEmail    = "admin@motorlane.local"
)

// EnsureDevActors seeds one actor per role plus a vehicle so a fresh
// development database is exercisable immediately. It is a no-op when
// any actor already exists.
func EnsureDevActors(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&identitydomain.Actor{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()

		workshop := identitydomain.Actor{
			ID:        node.Generate(),
			Role:      identitydomain.RoleWorkshop,
			Name:      defaultWorkshopName,
			Email:     defaultWorkshopEmail,
			CreatedAt: now,
		}
		workshop.WorkshopID = &workshop.ID
		if err := tx.WithContext(ctx).Create(&workshop).Error; err != nil {
			return err
		}

		owner := identitydomain.Actor{
			ID:        node.Generate(),
			Role:      identitydomain.RoleOwner,
			Name:      defaultOwnerName,
			Email:     defaultOwnerEmail,
			CreatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&owner).Error; err != nil {
			return err
		}

		mechanic := identitydomain.Actor{
			ID:         node.Generate(),
			Role:       identitydomain.RoleMechanic,
			WorkshopID: &workshop.ID,
			Name:       defaultMechanicName,
			Email:      defaultMechanicEmail,
			CreatedAt:  now,
		}
		if err := tx.WithContext(ctx).Create(&mechanic).Error; err != nil {
			return err
		}

		admin := identitydomain.Actor{
			ID:        node.Generate(),
			Role:      identitydomain.RoleAdmin,
			Name:      defaultAdminName,
			Email:     defaultAdminEmail,
			CreatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&admin).Error; err != nil {
			return err
		}

		vehicle := vehicledomain.Vehicle{
			ID:        node.Generate(),
			OwnerID:   owner.ID,
			Plate:     "DEV-0001",
			Make:      "Toyota",
			Model:     "Corolla",
			Year:      2019,
			CreatedAt: now,
		}
		return tx.WithContext(ctx).Create(&vehicle).Error
	})
}
