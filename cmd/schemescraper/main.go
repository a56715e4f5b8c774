package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/bajicv/enterobase-scheme-scraper/internal/app"
	"github.com/bajicv/enterobase-scheme-scraper/internal/common"
	"github.com/bajicv/enterobase-scheme-scraper/internal/handler/cli"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s -operation <operation> [-organism <organism>] [-scheme <scheme>]

Operations:
  list_schemes            list every scheme on the server
  list_organisms          list every organism
  list_organism_schemes   list the schemes of one organism (needs -organism)
  download_scheme         download all files of one scheme (needs -organism and -scheme)

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	cfgFileName := flag.String("c", "config.yml", "Path to config file")
	operation := flag.String("operation", "", "Operation to run")
	organism := flag.String("organism", "", "Organism, e.g. Salmonella")
	scheme := flag.String("scheme", "", "Scheme, e.g. Achtman7GeneMLST")
	flag.Usage = usage
	flag.Parse()

	if *operation == "" {
		usage()
		os.Exit(1)
	}

	err := app.New(*cfgFileName).Run(context.Background(), cli.Request{
		Operation: *operation,
		Organism:  *organism,
		Scheme:    *scheme,
	})
	if err != nil {
		if errors.Is(err, common.ErrUnknownOperation) {
			usage()
			os.Exit(1)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
