package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	json "github.com/json-iterator/go"
	"github.com/zfogg/snapshare/internal/client"
	"github.com/zfogg/snapshare/internal/feed"
	"github.com/zfogg/snapshare/internal/models"
)

var (
	bold    = color.New(color.Bold)
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	info    = color.New(color.FgCyan)
	faint   = color.New(color.Faint)
)

func printSuccess(msg string, args ...interface{}) {
	success.Printf(msg+"\n", args...)
}

func printError(msg string, args ...interface{}) {
	failure.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
}

// printJSON writes v as indented JSON and reports whether JSON output was requested
func printJSON(v interface{}) (bool, error) {
	if output != "json" {
		return false, nil
	}
	enc := json.NewEncoder(color.Output)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

func printFeed(resp *feed.Response) error {
	if ok, err := printJSON(resp); ok {
		return err
	}

	if len(resp.Items) == 0 {
		info.Println("No posts yet")
		return nil
	}

	for _, item := range resp.Items {
		bold.Printf("%s", item.Author.Name)
		faint.Printf("  %s  %s\n", item.ID, item.CreatedAt.Local().Format(time.RFC822))
		if item.Content != nil {
			fmt.Println(*item.Content)
		}
		for _, img := range item.Images {
			info.Printf("  %s\n", img)
		}
		if len(item.AITags) > 0 {
			faint.Printf("  #%s\n", strings.Join(item.AITags, " #"))
		}

		fmt.Printf("  %s %d  %s %d  %s %d\n",
			marker("♥", item.Liked), item.Counts.Likes,
			"💬", item.Counts.Comments,
			marker("★", item.Favorited), item.Counts.Favorites)
		fmt.Println()
	}
	faint.Printf("%d of at most %d posts\n", resp.Meta.Count, resp.Meta.Limit)
	return nil
}

// marker highlights the symbol when the viewer flag is set
func marker(symbol string, active *bool) string {
	if active != nil && *active {
		return success.Sprint(symbol)
	}
	return symbol
}

func printPost(post *models.Post) error {
	if ok, err := printJSON(post); ok {
		return err
	}

	printSuccess("Created post %s", post.ID)
	for _, img := range post.Images {
		info.Printf("  %s\n", img)
	}
	if post.AIDescription != nil {
		faint.Printf("  %s\n", *post.AIDescription)
	}
	if len(post.AITags) > 0 {
		faint.Printf("  #%s\n", strings.Join(post.AITags, " #"))
	}
	return nil
}

func printComments(comments []client.Comment) error {
	if ok, err := printJSON(comments); ok {
		return err
	}

	if len(comments) == 0 {
		info.Println("No comments yet")
		return nil
	}
	for _, c := range comments {
		bold.Printf("%s", c.Author.Name)
		faint.Printf("  %s\n", c.CreatedAt.Local().Format(time.RFC822))
		fmt.Printf("  %s\n", c.Content)
	}
	return nil
}
