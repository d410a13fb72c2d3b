package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zfogg/snapshare/internal/client"
	"github.com/zfogg/snapshare/internal/repository"
)

var (
	feedAll      bool
	postImages   []string
	postTags     []string
	postDescribe string
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := api.Health(cmd.Context())
		if err != nil {
			return err
		}
		if ok, err := printJSON(h); ok {
			return err
		}
		if h.Status != "ok" {
			printError("server is %s (database %s)", h.Status, h.Database)
			return nil
		}
		printSuccess("server is ok")
		return nil
	},
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show your home feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		fetch := api.Feed
		if feedAll {
			fetch = api.ListPosts
		}
		resp, err := fetch(cmd.Context())
		if err != nil {
			return err
		}
		return printFeed(resp)
	},
}

var postCmd = &cobra.Command{
	Use:   "post [text]",
	Short: "Create a post",
	Long: `Create a post from text and/or image URLs returned by "snapshare upload".
Use "snapshare post publish" to upload local files in the same step.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := client.CreatePostRequest{Images: postImages, AITags: postTags}
		if len(args) == 1 {
			req.Content = &args[0]
		}
		if postDescribe != "" {
			req.AIDescription = &postDescribe
		}

		post, err := api.CreatePost(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printPost(post)
	},
}

var postPublishCmd = &cobra.Command{
	Use:   "publish [text] [image files...]",
	Short: "Upload images, tag them automatically and create a post",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var content string
		files := args
		if _, err := os.Stat(args[0]); err != nil {
			content, files = args[0], args[1:]
		}

		logger.Debug("Publishing", "files", len(files))
		post, err := api.Publish(cmd.Context(), content, files)
		if err != nil {
			return err
		}
		return printPost(post)
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment <post-id> [text]",
	Short: "List a post's comments, or add one",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			comments, err := api.ListComments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printComments(comments)
		}

		comment, err := api.CreateComment(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if ok, err := printJSON(comment); ok {
			return err
		}
		printSuccess("Commented %s", comment.ID)
		return nil
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Like or unlike a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := api.ToggleLike(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printToggle("Liked", "Unliked", res)
	},
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite <post-id>",
	Short: "Favorite or unfavorite a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := api.ToggleFavorite(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printToggle("Favorited", "Unfavorited", res)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <image file>",
	Short: "Upload an image and print its URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := api.Upload(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if output == "json" {
			_, err := printJSON(map[string]string{"url": res.URL, "filename": res.Filename})
			return err
		}
		printSuccess("%s", res.URL)
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image file>",
	Short: "Describe and tag a local image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		analysis, err := api.Analyze(cmd.Context(), base64.StdEncoding.EncodeToString(data))
		if err != nil {
			return err
		}
		if ok, err := printJSON(analysis); ok {
			return err
		}
		if analysis.Description == "" && len(analysis.Tags) == 0 {
			info.Println("No analysis available")
			return nil
		}
		bold.Println(analysis.Description)
		for _, tag := range analysis.Tags {
			fmt.Printf("  #%s\n", tag)
		}
		return nil
	},
}

func printToggle(on, off string, res *repository.ToggleResult) error {
	if ok, err := printJSON(res); ok {
		return err
	}
	if res.Active {
		printSuccess("%s (%d total)", on, res.Count)
	} else {
		info.Printf("%s (%d total)\n", off, res.Count)
	}
	return nil
}

func init() {
	feedCmd.Flags().BoolVar(&feedAll, "all", false, "Show the newest posts without your like/favorite state")

	postCmd.Flags().StringSliceVar(&postImages, "image", nil, "Image URL from a previous upload (repeatable)")
	postCmd.Flags().StringSliceVar(&postTags, "tag", nil, "Tag (repeatable)")
	postCmd.Flags().StringVar(&postDescribe, "description", "", "Image description")
	postCmd.AddCommand(postPublishCmd)
}
