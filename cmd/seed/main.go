package main

import (
	"context"
	"errors"
	"log"

	"bikeworkshop/internal/config"
	"bikeworkshop/internal/database"
	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type seedWorkshop struct {
	workshop domain.Workshop
	services []domain.Service
}

var workshops = []seedWorkshop{
	{
		workshop: domain.Workshop{
			Name:                   "Thamel Bike Care",
			Email:                  "thamel@bikeworkshop.local",
			Phone:                  "+977 1 4411223",
			Address:                "Thamel Marg, Kathmandu",
			Lat:                    27.7154,
			Lng:                    85.3123,
			PickupDropoffAvailable: true,
			PickupDropoffCostPerKm: 25,
		},
		services: []domain.Service{
			{Name: "Full Service", Description: "Engine oil, filters, chain and brake check", Price: 1500},
			{Name: "Oil Change", Description: "Engine oil and oil filter", Price: 800},
			{Name: "Brake Overhaul", Description: "Pads, fluid and adjustment", Price: 1200},
		},
	},
	{
		workshop: domain.Workshop{
			Name:    "Lalitpur Moto Garage",
			Email:   "lalitpur@bikeworkshop.local",
			Phone:   "+977 1 5522334",
			Address: "Pulchowk, Lalitpur",
			Lat:     27.6786,
			Lng:     85.3169,
		},
		services: []domain.Service{
			{Name: "Wash and Polish", Price: 500},
			{Name: "Chain Replacement", Description: "Chain and sprocket set", Price: 3500},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.Database.URL, nil)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	ctx := context.Background()
	workshopRepo := repository.NewWorkshopRepository(db)
	userRepo := repository.NewUserRepository(db)

	existing, err := workshopRepo.List(ctx)
	if err != nil {
		log.Fatal("list workshops failed:", err)
	}

	// ================== WORKSHOPS ==================
	var firstID int64
	if len(existing) > 0 {
		firstID = existing[0].ID
		log.Printf("Workshops already present (%d), skipping", len(existing))
	} else {
		log.Println("Creating workshops...")
		for i := range workshops {
			w := workshops[i].workshop
			if err := workshopRepo.Create(ctx, &w); err != nil {
				log.Fatalf("create workshop %q failed: %v", w.Name, err)
			}
			if firstID == 0 {
				firstID = w.ID
			}
			for _, s := range workshops[i].services {
				s.WorkshopID = w.ID
				if err := workshopRepo.CreateService(ctx, &s); err != nil {
					log.Fatalf("create service %q failed: %v", s.Name, err)
				}
			}
			log.Printf("Workshop created: %s (%d services)", w.Name, len(workshops[i].services))
		}
	}

	// ================== USERS ==================
	log.Println("Creating users...")
	users := []struct {
		email    string
		password string
		name     string
		role     domain.UserRole
		workshop *int64
	}{
		{"superadmin@bikeworkshop.local", "super123", "Super Admin", domain.RoleSuperAdmin, nil},
		{"admin@bikeworkshop.local", "admin123", "Workshop Admin", domain.RoleAdmin, &firstID},
		{"ram@bikeworkshop.local", "customer123", "Ram Shrestha", domain.RoleCustomer, nil},
	}

	for _, u := range users {
		if _, err := userRepo.GetByEmail(ctx, u.email); err == nil {
			log.Printf("User exists: %s", u.email)
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			log.Fatalf("lookup %s failed: %v", u.email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("hash failed:", err)
		}
		user := &domain.User{
			Email:        u.email,
			PasswordHash: string(hash),
			Name:         u.name,
			Role:         u.role,
			WorkshopID:   u.workshop,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("create %s failed: %v", u.email, err)
		}
		log.Printf("%s created: %s / %s", u.role, u.email, u.password)
	}

	log.Println("Seed completed")
}
