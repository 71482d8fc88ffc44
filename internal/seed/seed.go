// internal/seed/seed.go
package seed

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/types"
)

func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	existing, _ := repos.ProfileRepo.List(ctx, 1, 0)
	if len(existing) > 0 {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] 🌱 Creating initial data with real scenarios...")

	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	// ============================================
	// STAFF ACCOUNTS (credential first, profile keyed by credential ID)
	// ============================================

	// 1. RENATE - Shop admin
	renateCred := &repository.Credential{
		Email:        "renate@printready.io",
		PasswordHash: string(password),
	}
	repos.AuthRepo.CreateCredential(ctx, renateCred)
	renate := &repository.Profile{
		ID:          renateCred.ID,
		Email:       renateCred.Email,
		DisplayName: "Renate Vos",
		Role:        types.RoleAdmin,
		Status:      types.ProfileActive,
		OwnerKey:    renateCred.ID,
	}
	repos.ProfileRepo.Upsert(ctx, renate)

	// 2. DAAN - Designer who uploads proofs
	daanCred := &repository.Credential{
		Email:        "daan@printready.io",
		PasswordHash: string(password),
	}
	repos.AuthRepo.CreateCredential(ctx, daanCred)
	daan := &repository.Profile{
		ID:          daanCred.ID,
		Email:       daanCred.Email,
		DisplayName: "Daan Bakker",
		Role:        types.RoleDesigner,
		Status:      types.ProfileActive,
		OwnerKey:    daanCred.ID,
	}
	repos.ProfileRepo.Upsert(ctx, daan)

	log.Printf("✅ Created 2 staff accounts: Renate (admin), Daan (designer)")

	// ============================================
	// SCENARIO 1: ACTIVE CLIENT
	// An activated client with an approved proof behind them
	// ============================================
	lotteCred := &repository.Credential{
		Email:        "lotte@koffiebar-oost.nl",
		PasswordHash: string(password),
	}
	repos.AuthRepo.CreateCredential(ctx, lotteCred)
	lotte := &repository.Profile{
		ID:          lotteCred.ID,
		Email:       lotteCred.Email,
		DisplayName: "Lotte Jansen",
		Role:        types.RoleClient,
		Status:      types.ProfileActive,
		OwnerKey:    lotteCred.ID,
	}
	repos.ProfileRepo.Upsert(ctx, lotte)

	repos.ProofRepo.Create(ctx, &repository.Proof{
		Title:      "Loyalty card, 2nd edition",
		FileRef:    "loyalty-card-v2.pdf",
		OwnerKey:   lotte.ID,
		OwnerEmail: lotte.Email,
		Status:     types.ProofApproved,
		Quantity:   500,
		UnitPrice:  decimal.NewFromFloat(0.18),
		AssignedTo: []string{daan.ID},
	})

	log.Printf("✅ Created active client Lotte with 1 approved proof")

	// ============================================
	// SCENARIO 2: INVITED-BUT-PENDING CLIENT
	// Placeholder with proofs queued behind the invitation
	// ============================================
	pieter := &repository.Placeholder{
		Email:       "pieter@bloemenhuis-zuid.nl",
		DisplayName: "Pieter de Groot",
		Status:      types.PlaceholderPending,
		InvitedBy:   renate.Email,
	}
	repos.PlaceholderRepo.Create(ctx, pieter)

	repos.ProofRepo.Create(ctx, &repository.Proof{
		Title:      "Spring flyer A5",
		FileRef:    "spring-flyer-a5.pdf",
		OwnerKey:   pieter.ID,
		OwnerEmail: pieter.Email,
		Status:     types.ProofPending,
		Quantity:   1000,
		UnitPrice:  decimal.NewFromFloat(0.09),
		AssignedTo: []string{daan.ID},
	})
	repos.ProofRepo.Create(ctx, &repository.Proof{
		Title:      "Window poster 50x70",
		FileRef:    "window-poster-50x70.pdf",
		OwnerKey:   pieter.ID,
		OwnerEmail: pieter.Email,
		Status:     types.ProofPending,
		Quantity:   10,
		UnitPrice:  decimal.NewFromFloat(4.50),
		AssignedTo: []string{daan.ID},
	})

	log.Printf("✅ Created pending invitation for Pieter with 2 queued proofs")
	log.Printf("   └─ Activating Pieter's invitation will transfer both proofs")

	log.Println("[Seed] 🎉 Seed complete")
}
