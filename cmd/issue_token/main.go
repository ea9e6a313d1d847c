package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"trinity-schools/app/config"
	"trinity-schools/app/routes/auth"
)

func main() {
	clientID := flag.String("client", "", "client id (random when empty)")
	name := flag.String("name", "API client", "display name")
	roles := flag.String("roles", "", "comma separated roles, e.g. admin,bursar")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	config.LoadEnv()
	if err := auth.CheckSecret(); err != nil {
		log.Fatal(err)
	}

	id := *clientID
	if id == "" {
		id = uuid.NewString()
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, err := auth.GenerateJWT(id, *name, roleList, *ttl)
	if err != nil {
		fmt.Printf("Error issuing token: %v\n", err)
		return
	}

	fmt.Printf("Token issued for %s (%s), roles=%v, expires in %s\n", *name, id, roleList, *ttl)
	fmt.Println(token)
}
