// Package veccoll embeds the collection sync engine in Go programs.
//
// A Client declares collections from tabular sources, ingests them through
// an embedding provider into Valkey or Redis with search modules, and
// queries them by text.
//
//	client, _ := veccoll.New(ctx,
//	    veccoll.WithValkey("localhost:6379", ""),
//	    veccoll.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	res, _ := client.SyncFile(ctx, "chroma.config.json", false)
//	matches, _ := client.Query(ctx, "", "solar eclipse", 5)
//
// Without a database option the client keeps collections in memory,
// which suits tests and dry runs.
package veccoll
