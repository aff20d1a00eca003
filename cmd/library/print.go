package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/osa030/musicbox/internal/domain/account"
	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/track"
)

func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(header)
	return t
}

func printArtists(artists []catalog.Artist) {
	if len(artists) == 0 {
		fmt.Println("No artists")
		return
	}
	t := newTable(table.Row{"ID", "Name"})
	for _, a := range artists {
		t.AppendRow(table.Row{text.FgHiBlack.Sprint(a.ID), a.Name})
	}
	t.Render()
}

func printAlbums(albums []catalog.Album) {
	if len(albums) == 0 {
		fmt.Println("No albums")
		return
	}
	t := newTable(table.Row{"ID", "Title", "Artist"})
	for _, a := range albums {
		t.AppendRow(table.Row{text.FgHiBlack.Sprint(a.ID), a.Title, a.ArtistName})
	}
	t.Render()
}

func printSongs(songs []track.Track) {
	if len(songs) == 0 {
		fmt.Println("No songs")
		return
	}
	t := newTable(table.Row{"#", "ID", "Title", "Album"})
	for i, s := range songs {
		t.AppendRow(table.Row{i + 1, text.FgHiBlack.Sprint(s.ID), s.Title, s.AlbumTitle})
	}
	t.Render()
}

func printSearch(r catalog.SearchResults) {
	if r.IsEmpty() {
		fmt.Println("No results")
		return
	}
	fmt.Println(text.Bold.Sprint("Songs"))
	printSongs(r.Songs)
	fmt.Println(text.Bold.Sprint("Albums"))
	printAlbums(r.Albums)
	fmt.Println(text.Bold.Sprint("Artists"))
	printArtists(r.Artists)
}

func printProfile(p account.Profile) {
	t := newTable(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"ID", p.ID})
	t.AppendRow(table.Row{"Username", p.Username})
	t.AppendRow(table.Row{"Bio", p.Bio})
	t.Render()
}
