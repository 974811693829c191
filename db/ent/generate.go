package main

import (
	"log"

	"entgo.io/ent/entc"
	"entgo.io/ent/entc/gen"
)

func main() {
	err := entc.Generate(
		"./db/ent/schema",
		&gen.Config{
			Target:   "gen/ent",
			Package:  "github.com/joseph-ayodele/jobapply/gen/ent",
			Schema:   "github.com/joseph-ayodele/jobapply/db/ent/schema",
			Features: []gen.Feature{gen.FeatureLock, gen.FeatureUpsert},
		},
	)
	if err != nil {
		log.Fatal(err)
	}
}
