package cli

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func (a *App) photoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo [url]",
		Short: "View a photo Ava sent you",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(a.Out, mutedStyle.Render("No photo URL provided."))
				return nil
			}
			a.viewPhoto(args[0])
			return nil
		},
	}
	return cmd
}

// viewPhoto downloads the image to a temp file. Photo links point at the
// image host directly rather than the API, so this does not go through the
// API client. A broken link is quietly hidden, never an error; the expiry
// note is always shown.
func (a *App) viewPhoto(url string) {
	if path, ok := a.fetchPhoto(url); ok {
		fmt.Fprintln(a.Out, "Photo from Ava saved to "+path)
	}
	fmt.Fprintln(a.Out, mutedStyle.Render("This link expires in 24 hours"))
}

func (a *App) fetchPhoto(url string) (string, bool) {
	resp, err := http.Get(url)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false
	}

	f, err := os.CreateTemp("", "ava-photo-*"+photoExt(resp.Header.Get("Content-Type")))
	if err != nil {
		return "", false
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", false
	}
	return filepath.Clean(f.Name()), true
}

func photoExt(contentType string) string {
	// Strip parameters like "; charset=binary" before matching.
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".jpg"
	}
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
