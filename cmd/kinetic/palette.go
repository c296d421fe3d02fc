package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"karolbroda.com/kinetic/internal/artwork"
	"karolbroda.com/kinetic/internal/cache"
	"karolbroda.com/kinetic/internal/terminal"
)

var (
	// flags for palette
	showPreview   bool
	previewWidth  int
	previewHeight int
)

var paletteCmd = &cobra.Command{
	Use:   "palette <image>",
	Short: "extract a color palette from an image",
	Long: `extract the palette the viewer would use to recolor a scene.
accepts a local path, a file:// url or an http(s) url. results for local
files are cached until the file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		src := args[0]

		var c *cache.DiskCache
		if !noCache {
			c = cache.GetGlobalCache()
		}

		p, err := artwork.Resolve(ctx, c, src)
		if err != nil {
			return fmt.Errorf("failed to extract palette: %w", err)
		}

		fmt.Printf("primary:   %s\n", p.Primary)
		fmt.Printf("secondary: %s\n", p.Secondary)
		fmt.Printf("accent:    %s\n", p.Accent)
		fmt.Printf("dim:       %s\n", p.Dim)
		fmt.Printf("gradient:  %s\n", p.GradientInfo)
		fmt.Println()
		fmt.Println(artwork.RenderSwatches(p))

		if !showPreview {
			return nil
		}

		img, err := artwork.Load(ctx, src)
		if err != nil {
			return fmt.Errorf("failed to load preview: %w", err)
		}

		fmt.Println()
		if caps := terminal.DetectCapabilities(); caps.SupportsKittyGraphics {
			if out := terminal.EncodeImageForKitty(img, previewWidth, previewHeight); out != "" {
				fmt.Println(out)
				return nil
			}
		}
		for _, line := range artwork.RenderHalfBlockArt(img, previewWidth, previewHeight) {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(paletteCmd)

	paletteCmd.Flags().BoolVar(&showPreview, "preview", false, "draw the image below the palette")
	paletteCmd.Flags().IntVar(&previewWidth, "width", 32, "preview width in columns")
	paletteCmd.Flags().IntVar(&previewHeight, "height", 16, "preview height in rows")
	paletteCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable palette cache reads (always extract fresh)")
}
