package main

import (
	"flag"
	"log"
	"os"

	"trinity-schools/app/config"
	"trinity-schools/app/database"
)

func main() {
	file := flag.String("file", "", "optional extra SQL file to execute after the schema")
	flag.Parse()

	log.Println("Starting manual migration...")

	config.LoadEnv()
	config.InitDB()
	db := config.GetDB()
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if *file != "" {
		content, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Reading %s: %v", *file, err)
		}
		log.Printf("Executing %s...", *file)
		if _, err := db.Exec(string(content)); err != nil {
			log.Fatalf("Error executing %s: %v", *file, err)
		}
		log.Printf("Successfully executed %s", *file)
	}

	log.Println("Manual migration completed successfully!")
}
