// ABOUTME: Basic example showing favicon lookup with the favicon library
// ABOUTME: Demonstrates default configuration, per-call options and error handling

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	favicons "favicon-finder-api/favicon-lib"
)

func main() {
	client, err := favicons.NewClient(
		favicons.WithQuietMode(),
		favicons.WithCacheTTL(time.Hour),
	)
	if err != nil {
		log.Fatal("Failed to create client:", err)
	}
	defer client.Close()

	sites := os.Args[1:]
	if len(sites) == 0 {
		sites = []string{"https://go.dev", "https://github.com"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, site := range sites {
		favicon, err := client.Find(ctx, site)
		switch {
		case favicons.IsNotFoundError(err):
			fmt.Printf("%s: no favicon\n", site)
			continue
		case err != nil:
			fmt.Printf("%s: %v\n", site, err)
			continue
		}

		fmt.Printf("%s: %s (%s, %dx%d via %s)\n",
			site, favicon.URL, favicon.Format, favicon.Width, favicon.Height, favicon.Strategy)

		if color, err := client.DominantColor(ctx, favicon); err == nil {
			fmt.Printf("  dominant color %s\n", color.Hex)
		}
	}

	// Only locate the apple touch icon, without downloading it
	if u, err := client.FindURL(ctx, sites[0], favicons.Preferred(favicons.StrategyAppleTouchIcon)); err == nil {
		fmt.Printf("touch icon candidate: %s\n", u)
	}
}
