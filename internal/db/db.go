package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/decisionlab/boardroom/internal/agents"
	"github.com/decisionlab/boardroom/internal/debate"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return gdb
}

func AutoMigrate(gdb *gorm.DB) {
	if err := gdb.AutoMigrate(
		&agents.Profile{},
		&agents.Agent{},
		&debate.Session{},
		&debate.Turn{},
		&debate.Summary{},
		&debate.RunJob{},
	); err != nil {
		log.Fatalf("automigrate: %v", err)
	}
}
