// Package searchbridge embeds the searchbridge index layer in a Go program.
//
// The client reads the same YAML configuration as the searchbridge binary,
// talks to Elasticsearch directly and resolves hits against the configured
// record source:
//
//	client, _ := searchbridge.New(ctx, searchbridge.WithConfigFile("config/local.yaml"))
//	defer client.Close()
//
//	res, _ := client.Search("content").
//	    Query("release notes").
//	    Filter("Tags.ID", 2).
//	    Sort("LastEdited", searchbridge.Desc).
//	    Page(0, 20).
//	    Highlight().
//	    Do(ctx)
//
//	_, _ = client.Records("content").Sync(ctx, "Page", 1, 2, 3)
package searchbridge
