package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/llehouerou/humdrum/internal/catalog"
	"github.com/llehouerou/humdrum/internal/errmsg"
)

func catalogImportAction(cliCtx *cli.Context) error {
	path := cliCtx.Args().First()
	if path == "" {
		return cli.Exit("usage: humdrum catalog import <file.json>", 2)
	}

	a, err := openApp(cliCtx)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	songs, err := catalog.ReadSongs(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := a.store.Put(cliCtx.Context, songs...); err != nil {
		return errors.New(errmsg.Format(errmsg.OpCatalogImport, err))
	}

	total, err := a.store.Count(cliCtx.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %s songs (%s in catalog)\n",
		humanize.Comma(int64(len(songs))), humanize.Comma(int64(total)))
	return nil
}

func catalogSearchAction(cliCtx *cli.Context) error {
	a, err := openApp(cliCtx)
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.catalog.GetSongs(cliCtx.Context, catalog.Filter{
		Query: cliCtx.Args().First(),
		Limit: cliCtx.Int(flagLimit),
	})
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpCatalogLoad, err))
	}
	if len(page.Songs) == 0 {
		fmt.Fprintln(a.out, "No songs found")
		return nil
	}
	printSongs(a.out, page.Songs)
	if page.Next != "" {
		fmt.Fprintf(a.out, "More songs after %s\n", page.Next)
	}
	return nil
}

func printSongs(w io.Writer, songs []catalog.Song) {
	for i, s := range songs {
		fmt.Fprintf(w, "%2d. %s\n", i+1, songLine(s))
	}
}

func songLine(s catalog.Song) string {
	line := fmt.Sprintf("[%s] %s", s.ID, s.Title)
	if s.Artist != "" {
		line += " - " + s.Artist
	}
	return line
}

func historyAction(cliCtx *cli.Context) error {
	a, err := openApp(cliCtx)
	if err != nil {
		return err
	}
	defer a.Close()

	if cliCtx.Bool(flagClear) {
		if err := a.history.Clear(cliCtx.Context); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "History cleared")
		return nil
	}

	entries, err := a.history.List(cliCtx.Context)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpHistoryLoad, err))
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "Nothing played yet")
		return nil
	}
	for i, e := range entries {
		fmt.Fprintf(a.out, "%2d. %s (%s)\n", i+1, songLine(e.Song), humanize.Time(e.PlayedAt))
	}
	return nil
}
