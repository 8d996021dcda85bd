// Package factlens embeds the factlens fact-checking pipeline in a Go program,
// backed by Redis with the query engine and JSON modules.
//
// A turn runs once through memory lookup, search planning, retrieval and
// answer composition. Failed plan steps show up as error markers in the
// evidence; only the memory and answer stages can fail a turn.
//
//	client, _ := factlens.New(ctx,
//	    factlens.WithRedis("localhost:6379", ""),
//	    factlens.WithEmbedder(textEmbedder),
//	    factlens.WithCompleter(llm),
//	)
//	defer client.Close()
//
//	ans, _ := client.Ask(ctx, factlens.Turn{
//	    UserID: "officer_keshav",
//	    Text:   "How much does a VVPAT cost?",
//	})
//	fmt.Println(ans.Text)
package factlens
