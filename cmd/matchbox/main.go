// Command matchbox indexes and searches a local shard directory.
//
//	matchbox -dir /path/to/shard index -url doc://a file.txt
//	matchbox -dir /path/to/shard search -n 10 -i "wonderful world"
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dna2zodiac/matchbox/pkg/matchbox"
)

func main() {
	dir := flag.String("dir", "", "shard directory")
	flag.Parse()
	if *dir == "" || flag.NArg() < 1 {
		usage()
	}

	engine, err := matchbox.Open(*dir, matchbox.DefaultOptions())
	if err != nil {
		fatal(err)
	}
	defer engine.Close()

	ctx := context.Background()
	switch flag.Arg(0) {
	case "index":
		runIndex(ctx, engine, flag.Args()[1:])
	case "search":
		runSearch(ctx, engine, flag.Args()[1:])
	default:
		usage()
	}
}

func runIndex(ctx context.Context, engine matchbox.Engine, args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	url := fs.String("url", "", "document url")
	fs.Parse(args)

	var text []byte
	var err error
	if fs.NArg() == 0 || fs.Arg(0) == "-" {
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = os.ReadFile(fs.Arg(0))
	}
	if err != nil {
		fatal(err)
	}

	id, err := engine.Index(ctx, *url, string(text))
	if err != nil {
		fatal(err)
	}
	if id == 0 {
		fmt.Println("not indexed: no trigram in document")
		return
	}
	fmt.Printf("doc id = %d\n", id)
}

func runSearch(ctx context.Context, engine matchbox.Engine, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	n := fs.Int("n", 10, "result limit")
	insensitive := fs.Bool("i", false, "case-insensitive match")
	fs.Parse(args)
	if fs.NArg() < 1 {
		usage()
	}

	urls, err := engine.Search(ctx, fs.Arg(0), &matchbox.QueryOptions{
		Limit:         *n,
		CaseSensitive: !*insensitive,
	})
	if err != nil {
		fatal(err)
	}
	for _, u := range urls {
		fmt.Println(u)
	}
	fmt.Fprintf(os.Stderr, "%d result(s)\n", len(urls))
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: matchbox -dir <shard> index -url <url> [file|-]")
	fmt.Fprintln(os.Stderr, "       matchbox -dir <shard> search [-n N] [-i] <query>")
	os.Exit(2)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
